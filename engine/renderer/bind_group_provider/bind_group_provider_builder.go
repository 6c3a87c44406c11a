package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithVertexData stages the vertex bytes for this provider.
//
// Parameters:
//   - data: the raw vertex data
//
// Returns:
//   - BindGroupProviderOption: a function that sets the vertex data for this provider
func WithVertexData(data []byte) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexData = data
	}
}

// WithIndexData stages the index bytes and the number of indices they describe.
//
// Parameters:
//   - data: the raw index data
//   - count: the number of indices in data
//
// Returns:
//   - BindGroupProviderOption: a function that sets the index data for this provider
func WithIndexData(data []byte, count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexData = data
		p.indexCount = count
	}
}
