package blob

import (
	"m3c/internal/infra/blob/fs"
)

// NewFilesystem constructs a store over an existing file-storage root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
