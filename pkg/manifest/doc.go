// Package manifest loads declarative kernel manifests: YAML or JSON
// documents naming the tensors a model exchanges, the operator nodes that
// transform them, and the outputs the caller wants materialised. A parsed
// Manifest converts into an executable graph via Graph.
package manifest
