package images

import (
	"context"

	"walletbook/internal/core"
)

// Uploader pushes a local image to the hosting service and returns its
// remote URL. Calling it with a reference that is already remote is a
// pass-through: the existing URL comes back without a re-upload.
type Uploader interface {
	Upload(ctx context.Context, ref *core.ImageRef, folder string) (string, error)
}
