package port

import (
	"context"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
)

// ArtifactWriter persists one tensor (and its label, when present) under
// outDir with the given base name.
type ArtifactWriter interface {
	Write(ctx context.Context, tensor *entity.Tensor, label *entity.Label, outDir, name string) error
}
