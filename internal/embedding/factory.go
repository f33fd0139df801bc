package embedding

// NewEmbedder returns an embedder for the given settings. When modelPath is
// set and the ONNX runtime is available, the ONNX embedder is used; otherwise
// the deterministic hash embedder backs both ingestion and search, so a
// missing model never blocks a run. Returns the embedder and whether ONNX
// was selected.
func NewEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (Embedder, bool) {
	if modelPath != "" {
		if e, err := newONNX(modelPath, dimensions, maxTokens, cacheSize); err == nil {
			return e, true
		}
	}
	return NewHashEmbedder(dimensions), false
}
