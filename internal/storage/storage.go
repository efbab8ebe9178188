// Package storage uploads media files and returns their public URLs.
// Records only ever hold the resulting URL, never the raw file.
package storage

import (
	"context"
	"io"
)

// Uploader stores a media file under a folder and returns its public URL.
// ext is the file extension including the dot, e.g. ".jpg".
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, folder, ext string) (string, error)
}
