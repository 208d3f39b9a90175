// Package embed defines the embedding capability shared by the ingestion and
// query paths. One model instance must serve both paths: mixing models
// invalidates similarity semantics. Implementations live under pkg/ (the
// Ollama REST adapter) and are injected at startup.
package embed

import "context"

// Provider maps text to fixed-dimension dense vectors.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the vector dimension D produced by this provider.
	Dimension() int
}
