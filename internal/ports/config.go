package ports

import "firmware-sources/internal/types"

// ConfigSourcePort loads the source-of-truth document. Implementations
// must read the document fresh on every call.
type ConfigSourcePort interface {
	Load(path string) (types.ConfigDocument, error)
}
