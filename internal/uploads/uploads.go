// Package uploads keeps product pictures on local disk.
package uploads

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// ErrUnsupportedFormat rejects files whose extension is not an image type we serve.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ProductsDir is the sub directory, and URL segment, for product pictures.
const ProductsDir = "products"

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Saved describes a stored file.
type Saved struct {
	Filename string
	Path     string
	Size     int64
}

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir is the directory product pictures are written to.
func (s *Store) Dir() string {
	return filepath.Join(s.root, ProductsDir)
}

// Save writes the upload under a random name keeping its extension.
func (s *Store) Save(ctx *gin.Context, fh *multipart.FileHeader) (Saved, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return Saved{}, ErrUnsupportedFormat
	}
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return Saved{}, pkgerrors.Wrap(err, "create upload dir")
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(s.Dir(), name)
	if err := ctx.SaveUploadedFile(fh, dst); err != nil {
		_ = os.Remove(dst)
		return Saved{}, pkgerrors.Wrapf(err, "write %s", name)
	}
	return Saved{Filename: name, Path: dst, Size: fh.Size}, nil
}

// Remove deletes a previously saved file. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(err, "remove upload")
	}
	return nil
}
