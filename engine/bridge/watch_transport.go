package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchTransport is the implementation of the WatchTransport interface.
type watchTransport struct {
	dir     string
	handler ExportHandler
	logger  *slog.Logger
	settle  time.Duration

	watcher *fsnotify.Watcher
}

// WatchTransport reports avatar files dropped into a directory as exports, for tools that save to
// disk instead of messaging. A file is reported once writes to it have been quiet for the settle
// interval, as its absolute path.
type WatchTransport interface {
	// Run watches until ctx is done or the watcher is closed.
	//
	// Parameters:
	//   - ctx: stops the watch
	//
	// Returns:
	//   - error: nil when stopped normally
	Run(ctx context.Context) error

	// Close stops the underlying watcher.
	//
	// Returns:
	//   - error: if the watcher could not be closed
	Close() error

	// Dir returns the watched directory.
	//
	// Returns:
	//   - string: the directory
	Dir() string
}

var _ WatchTransport = &watchTransport{}

// NewWatchTransport starts watching dir for new .glb and .gltf files.
//
// Parameters:
//   - dir: the drop directory
//   - handler: receives completed exports
//   - options: a variadic list of WatchTransportBuilderOption functions to configure the transport
//
// Returns:
//   - WatchTransport: a new WatchTransport
//   - error: if the directory cannot be watched
func NewWatchTransport(dir string, handler ExportHandler, options ...WatchTransportBuilderOption) (WatchTransport, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(abs); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	t := &watchTransport{
		dir:     abs,
		handler: handler,
		logger:  slog.Default(),
		settle:  250 * time.Millisecond,
		watcher: watcher,
	}
	for _, opt := range options {
		opt(t)
	}
	return t, nil
}

func (t *watchTransport) Run(ctx context.Context) error {
	ready := make(chan string)
	done := make(chan struct{})
	pending := make(map[string]*time.Timer)
	defer func() {
		close(done)
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) || !isAvatarFile(ev.Name) {
				continue
			}
			if timer, ok := pending[ev.Name]; ok {
				timer.Reset(t.settle)
				continue
			}
			name := ev.Name
			pending[name] = time.AfterFunc(t.settle, func() {
				select {
				case ready <- name:
				case <-done:
				}
			})

		case name := <-ready:
			if _, ok := pending[name]; !ok {
				continue
			}
			delete(pending, name)
			t.logger.Info("export received", "transport", "watch", "url", name)
			t.handler.OnExportCompleted(name)

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watch error", "dir", t.dir, "error", err)
		}
	}
}

func (t *watchTransport) Close() error {
	return t.watcher.Close()
}

func (t *watchTransport) Dir() string {
	return t.dir
}

// isAvatarFile reports whether name has a glTF extension.
func isAvatarFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".glb", ".gltf":
		return true
	}
	return false
}
