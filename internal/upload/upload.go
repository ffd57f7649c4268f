package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store saves uploaded images under a fixed directory. Filenames are
// generated, never taken from the client, so collisions cannot occur
// and the stored name is safe to persist as the image reference.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a store
// rooted at it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are stored under.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the uploaded file to the store and returns the generated
// filename. The original extension is kept so the file stays servable
// with a sensible content type.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write stored file: %w", err)
	}
	return name, nil
}
