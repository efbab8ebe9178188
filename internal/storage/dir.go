package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir stores uploads on the local filesystem and serves them under
// baseURL/uploads/. Used for development and tests when no Cloudinary
// credentials are configured.
type Dir struct {
	Root    string
	BaseURL string
}

// NewDir creates the upload directory if needed.
func NewDir(root, baseURL string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Dir{Root: root, BaseURL: baseURL}, nil
}

// Upload writes the file under a random name and returns its public URL.
func (d *Dir) Upload(_ context.Context, r io.Reader, folder, ext string) (string, error) {
	dir := filepath.Join(d.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload folder: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return d.BaseURL + "/uploads/" + folder + "/" + name, nil
}
