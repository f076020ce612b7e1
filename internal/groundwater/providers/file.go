package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

// FileSource reads the image document from a local file on every query.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file"
}

func (s *FileSource) Images(ctx context.Context, q groundwater.Query) (raster.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()

	doc, err := decodeDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc.images(q)
}
