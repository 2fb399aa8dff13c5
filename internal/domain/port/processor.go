package port

import (
	"context"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
)

// FrameProcessor turns one time window of the session video into a feature
// tensor: decode the frame chunk, then apply the configured method (face
// crop, eye crop or optical flow). Implementations own the video decoder
// and must serialize chunk extraction internally.
type FrameProcessor interface {
	Process(ctx context.Context, start, end float64, cropSize int) (*entity.Tensor, error)
}
