package video

import (
	"fmt"
	"image"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/metrics"
	"gocv.io/x/gocv"
)

// cascadeDetector locates a face or eye bounding box with a Haar cascade.
// When several candidates are found the largest one wins.
type cascadeDetector struct {
	classifier gocv.CascadeClassifier
	kind       string
}

func newCascadeDetector(xmlPath, kind string) (*cascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(xmlPath) {
		classifier.Close()
		return nil, fmt.Errorf("load %s cascade from %s", kind, xmlPath)
	}
	return &cascadeDetector{classifier: classifier, kind: kind}, nil
}

func (d *cascadeDetector) detect(frame gocv.Mat) (image.Rectangle, bool) {
	rects := d.classifier.DetectMultiScale(frame)
	if len(rects) == 0 {
		return image.Rectangle{}, false
	}
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best, true
}

func (d *cascadeDetector) Close() error {
	return d.classifier.Close()
}

// fallbackTracker guarantees a bounding box for every frame of a chunk:
// a failed detection reuses the last successful box within the same chunk,
// and before any detection exists it falls back to a centered square
// covering the frame.
type fallbackTracker struct {
	kind string
	last image.Rectangle
	has  bool
}

func newFallbackTracker(kind string) *fallbackTracker {
	return &fallbackTracker{kind: kind}
}

func (t *fallbackTracker) box(frame gocv.Mat, det image.Rectangle, found bool) image.Rectangle {
	if found {
		t.last = det
		t.has = true
		return det
	}

	metrics.DetectionFallbacksTotal.WithLabelValues(t.kind).Inc()
	if t.has {
		return t.last
	}
	return centeredSquare(frame.Cols(), frame.Rows())
}

// centeredSquare is the square of side min(width, height) centered in a
// width×height frame.
func centeredSquare(width, height int) image.Rectangle {
	side := width
	if height < side {
		side = height
	}
	x := (width - side) / 2
	y := (height - side) / 2
	return image.Rect(x, y, x+side, y+side)
}
