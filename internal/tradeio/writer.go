package tradeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/models"
)

// WriteEdges writes the edge list as CSV with a
// source,target,company,similarity header. The header is written even when
// edges is empty.
func WriteEdges(w io.Writer, edges []models.Edge) error {
	if edges == nil {
		edges = []models.Edge{}
	}
	if err := gocsv.Marshal(edges, w); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrOutputUnwritable, err)
	}
	return nil
}

// WriteEdgesFile writes the edge list to path, creating parent directories.
func WriteEdgesFile(path string, edges []models.Edge) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.Wrapf(apperrors.ErrOutputUnwritable, "create %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrOutputUnwritable, "create %s: %v", path, err)
	}
	if err := WriteEdges(f, edges); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrapf(apperrors.ErrOutputUnwritable, "close %s: %v", path, err)
	}
	return nil
}

// ReadEdges parses an edge list previously written by WriteEdges.
func ReadEdges(r io.Reader) ([]models.Edge, error) {
	var edges []models.Edge
	if err := gocsv.Unmarshal(r, &edges); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInputUnreadable, err)
	}
	return edges, nil
}
