// Package video decodes trial-aligned frame chunks from the session
// recording and turns them into feature tensors using OpenCV.
package video

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/entity"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/domain/port"
	"github.com/GeoQI/Cognitive-State-Estimation/internal/infra/metrics"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Handler owns the video decoder. The capture cursor is a single stateful
// resource, so chunk extraction holds mu for the whole decode of one trial.
type Handler struct {
	mu         sync.Mutex
	capture    *gocv.VideoCapture
	fps        float64
	frameCount int

	method   entity.Method
	detector *cascadeDetector
	logger   *zap.Logger
}

var _ port.FrameProcessor = (*Handler)(nil)

type CascadeConfig struct {
	FacePath string
	EyePath  string
}

func NewHandler(videoPath string, method entity.Method, cascades CascadeConfig, logger *zap.Logger) (*Handler, error) {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", videoPath, err)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		capture.Close()
		return nil, fmt.Errorf("video %s reports frame rate %.2f", videoPath, fps)
	}

	h := &Handler{
		capture:    capture,
		fps:        fps,
		frameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		method:     method,
		logger:     logger,
	}

	// The opticalflow method runs on extracted faces, so it shares the
	// face cascade.
	switch method {
	case entity.MethodFace, entity.MethodOpticalFlow:
		h.detector, err = newCascadeDetector(cascades.FacePath, "face")
	case entity.MethodEye:
		h.detector, err = newCascadeDetector(cascades.EyePath, "eye")
	}
	if err != nil {
		capture.Close()
		return nil, err
	}

	logger.Info("video opened",
		zap.String("path", videoPath),
		zap.Float64("fps", fps),
		zap.Int("frames", h.frameCount),
	)
	return h, nil
}

func (h *Handler) Close() error {
	if h.detector != nil {
		if err := h.detector.Close(); err != nil {
			return err
		}
	}
	return h.capture.Close()
}

// FPS returns the source frame rate.
func (h *Handler) FPS() float64 {
	return h.fps
}

// Process decodes the frames covering [start, end) seconds and applies the
// configured method, producing a (frames, crop, crop) grayscale tensor for
// face and eye crops or a (frames-1, crop, crop, 3) tensor for optical flow.
func (h *Handler) Process(ctx context.Context, start, end float64, cropSize int) (*entity.Tensor, error) {
	startIdx, endIdx := frameRange(start, end, h.fps)
	if h.frameCount > 0 && endIdx > h.frameCount {
		return nil, fmt.Errorf("%w: window [%.3f, %.3f) needs frame %d of %d",
			entity.ErrOutOfRange, start, end, endIdx, h.frameCount)
	}
	if endIdx <= startIdx {
		return nil, fmt.Errorf("%w: empty window [%.3f, %.3f)", entity.ErrOutOfRange, start, end)
	}

	chunk, err := h.extractChunk(ctx, startIdx, endIdx)
	if err != nil {
		return nil, err
	}
	defer closeMats(chunk)

	crops, err := h.cropChunk(ctx, chunk, cropSize)
	if err != nil {
		return nil, err
	}
	defer closeMats(crops)

	if h.method == entity.MethodOpticalFlow {
		return h.encodeFlowChunk(ctx, crops, cropSize)
	}
	return stackGray(crops, cropSize)
}

// extractChunk decodes frames [startIdx, endIdx) with exclusive ownership of
// the capture cursor. Codecs may snap seeks to the previous keyframe, so the
// cursor position is verified and frames are discarded until it is exact.
func (h *Handler) extractChunk(ctx context.Context, startIdx, endIdx int) ([]gocv.Mat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.seek(startIdx); err != nil {
		return nil, err
	}

	frames := make([]gocv.Mat, 0, endIdx-startIdx)
	buf := gocv.NewMat()
	defer buf.Close()

	for idx := startIdx; idx < endIdx; idx++ {
		if err := ctx.Err(); err != nil {
			closeMats(frames)
			return nil, err
		}
		if ok := h.capture.Read(&buf); !ok || buf.Empty() {
			closeMats(frames)
			return nil, fmt.Errorf("%w: frame %d of [%d, %d)", entity.ErrDecode, idx, startIdx, endIdx)
		}
		frames = append(frames, buf.Clone())
	}

	metrics.FramesExtractedTotal.Add(float64(len(frames)))
	h.logger.Debug("chunk decoded",
		zap.Int("start_frame", startIdx),
		zap.Int("end_frame", endIdx),
	)
	return frames, nil
}

func (h *Handler) seek(target int) error {
	h.capture.Set(gocv.VideoCapturePosFrames, float64(target))
	pos := int(h.capture.Get(gocv.VideoCapturePosFrames))
	if pos == target {
		return nil
	}
	if pos > target {
		// landed past the target; restart from the beginning
		h.capture.Set(gocv.VideoCapturePosFrames, 0)
	}

	buf := gocv.NewMat()
	defer buf.Close()
	for int(h.capture.Get(gocv.VideoCapturePosFrames)) < target {
		if ok := h.capture.Read(&buf); !ok {
			return fmt.Errorf("%w: seeking to frame %d", entity.ErrDecode, target)
		}
	}
	return nil
}

// cropChunk locates the region of interest in every frame and returns
// grayscale cropSize×cropSize crops. Detection never fails the chunk: the
// fallback tracker guarantees a box for every frame.
func (h *Handler) cropChunk(ctx context.Context, chunk []gocv.Mat, cropSize int) ([]gocv.Mat, error) {
	tracker := newFallbackTracker(h.detector.kind)
	crops := make([]gocv.Mat, 0, len(chunk))

	for _, frame := range chunk {
		if err := ctx.Err(); err != nil {
			closeMats(crops)
			return nil, err
		}

		box, found := h.detector.detect(frame)
		box = tracker.box(frame, box, found)

		crop, err := cropSquare(frame, box, cropSize)
		if err != nil {
			closeMats(crops)
			return nil, err
		}

		gray := gocv.NewMat()
		gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
		crop.Close()
		crops = append(crops, gray)
	}
	return crops, nil
}

func (h *Handler) encodeFlowChunk(ctx context.Context, crops []gocv.Mat, cropSize int) (*entity.Tensor, error) {
	if len(crops) < 2 {
		return nil, fmt.Errorf("%w: %d frames is too short for optical flow", entity.ErrDecode, len(crops))
	}

	data := make([]uint8, 0, (len(crops)-1)*cropSize*cropSize*3)
	for i := 1; i < len(crops); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flow, err := encodeFlow(crops[i-1], crops[i])
		if err != nil {
			return nil, err
		}
		data = append(data, flow.ToBytes()...)
		flow.Close()
	}
	return entity.NewTensor([]int{len(crops) - 1, cropSize, cropSize, 3}, data)
}

func stackGray(crops []gocv.Mat, cropSize int) (*entity.Tensor, error) {
	data := make([]uint8, 0, len(crops)*cropSize*cropSize)
	for _, c := range crops {
		data = append(data, c.ToBytes()...)
	}
	return entity.NewTensor([]int{len(crops), cropSize, cropSize}, data)
}

// frameRange converts a [start, end) window in seconds to frame indices at
// the source frame rate.
func frameRange(start, end, fps float64) (startIdx, endIdx int) {
	return int(math.Round(start * fps)), int(math.Round(end * fps))
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
