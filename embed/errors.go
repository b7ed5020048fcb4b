package embed

import "errors"

// ErrNilEmbedder indicates the service was constructed without a backend
// embedder.
var ErrNilEmbedder = errors.New("embedder must not be nil")
