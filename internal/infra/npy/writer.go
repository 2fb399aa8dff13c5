// Package npy persists feature tensors as NumPy .npy files with JSON
// ground-truth labels next to them.
package npy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/kshedden/gonpy"
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write stores tensor as {name}.npy under outDir and, when label is
// non-nil, {name}.json beside it. Any failure wraps ErrSerialization since
// an unwritable output directory is fatal to the whole run.
func (w *Writer) Write(ctx context.Context, tensor *entity.Tensor, label *entity.Label, outDir, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", entity.ErrSerialization, outDir, err)
	}

	npyPath := filepath.Join(outDir, name+".npy")
	nw, err := gonpy.NewFileWriter(npyPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", entity.ErrSerialization, npyPath, err)
	}
	nw.Shape = tensor.Shape
	if err := nw.WriteUint8(tensor.Data); err != nil {
		return fmt.Errorf("%w: write %s: %v", entity.ErrSerialization, npyPath, err)
	}

	if label == nil {
		return nil
	}

	raw, err := json.Marshal(label)
	if err != nil {
		return fmt.Errorf("%w: marshal label for %s: %v", entity.ErrSerialization, name, err)
	}
	jsonPath := filepath.Join(outDir, name+".json")
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", entity.ErrSerialization, jsonPath, err)
	}
	return nil
}
