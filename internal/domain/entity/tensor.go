package entity

import "fmt"

// Tensor is a stack of processed frames as a contiguous uint8 array in
// row-major order, shaped (frames, h, w) for grayscale crops or
// (frames, h, w, 3) for optical-flow encodings.
type Tensor struct {
	Shape []int
	Data  []uint8
}

func NewTensor(shape []int, data []uint8) (*Tensor, error) {
	want := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("tensor shape %v has non-positive dimension", shape)
		}
		want *= d
	}
	if len(data) != want {
		return nil, fmt.Errorf("tensor data length %d does not match shape %v (%d)", len(data), shape, want)
	}
	return &Tensor{Shape: shape, Data: data}, nil
}

// Frames is the size of the leading (stacking) dimension.
func (t *Tensor) Frames() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// Label is the ground truth stored next to a trial tensor.
type Label struct {
	N     int     `json:"n"`
	Score float64 `json:"score"`
}

// TrialArtifactName follows the recorded-data convention {n}-{i}-{method}.
func TrialArtifactName(t Trial, m Method) string {
	return fmt.Sprintf("%d-%d-%s", t.Level, t.Index, m)
}

// LectureArtifactName follows the convention {method}_lecture_video.
func LectureArtifactName(m Method) string {
	return fmt.Sprintf("%s_lecture_video", m)
}
