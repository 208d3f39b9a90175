package semantic

// VectorRecord is a single embedded chunk to persist in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // text, source, chunk_index, ruleset
}
