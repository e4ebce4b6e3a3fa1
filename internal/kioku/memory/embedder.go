package memory

import "context"

// Embedder produces vector embeddings for text. Implementations must be
// deterministic for a given model version, return vectors of a fixed
// dimensionality, and be safe for concurrent use.
//
// Embed is batched on purpose: a store add and a retrieval query each need
// exactly one call, and batching amortizes the per-call cost of both the
// local ONNX runtime and remote HTTP round trips.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
