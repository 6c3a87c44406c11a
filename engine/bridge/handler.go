package bridge

// ExportHandler receives completed exports from any transport. Implementations must not block:
// the transport calls it from its receive path.
type ExportHandler interface {
	OnExportCompleted(url string)
}

// ExportHandlerFunc adapts a function to ExportHandler.
type ExportHandlerFunc func(url string)

func (f ExportHandlerFunc) OnExportCompleted(url string) {
	f(url)
}
