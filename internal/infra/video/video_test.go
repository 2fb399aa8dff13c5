package video

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestFrameRange(t *testing.T) {
	for _, tc := range []struct {
		start, end, fps float64
	}{
		{10, 15, 30},
		{0.5, 2.75, 29.97},
		{100.1, 133.4, 25},
	} {
		startIdx, endIdx := frameRange(tc.start, tc.end, tc.fps)
		got := endIdx - startIdx
		want := math.Round((tc.end - tc.start) * tc.fps)
		assert.LessOrEqual(t, math.Abs(float64(got)-want), 1.0,
			"chunk length %d too far from %.0f for window [%.2f, %.2f) at %.2f fps",
			got, want, tc.start, tc.end, tc.fps)
	}
}

func TestSquareAroundSquarifiesToLargerSide(t *testing.T) {
	sq := squareAround(image.Rect(100, 100, 140, 160), 640, 480)
	assert.Equal(t, 60, sq.Dx())
	assert.Equal(t, 60, sq.Dy())
	// centered on the original box
	assert.Equal(t, 120, sq.Min.X+sq.Dx()/2)
}

func TestSquareAroundShiftsInsideFrame(t *testing.T) {
	sq := squareAround(image.Rect(0, 0, 50, 50), 640, 480)
	assert.Equal(t, image.Rect(0, 0, 50, 50), sq)

	sq = squareAround(image.Rect(620, 460, 640, 480), 640, 480)
	assert.True(t, sq.In(image.Rect(0, 0, 640, 480)))
	assert.Equal(t, sq.Dx(), sq.Dy())
}

func TestSquareAroundOversizedBoxOverflows(t *testing.T) {
	// a square wider than the frame cannot be shifted inside it
	sq := squareAround(image.Rect(0, 0, 800, 100), 640, 480)
	assert.Equal(t, 800, sq.Dx())
	assert.True(t, sq.Min.X < 0 || sq.Max.X > 640)
}

func TestCenteredSquare(t *testing.T) {
	sq := centeredSquare(640, 480)
	assert.Equal(t, 480, sq.Dx())
	assert.Equal(t, 480, sq.Dy())
	assert.Equal(t, image.Rect(80, 0, 560, 480), sq)
}

func TestCropSquareUpscalesSmallBox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// 40x40 detection with a 64 crop must upscale, never stay 40x40
	out, err := cropSquare(frame, image.Rect(300, 200, 340, 240), 64)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 64, out.Cols())
	assert.Equal(t, 64, out.Rows())
}

func TestCropSquareClampsAtFrameEdge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	out, err := cropSquare(frame, image.Rect(600, 440, 640, 480), 64)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 64, out.Cols())
	assert.Equal(t, 64, out.Rows())
}

func TestCropSquarePadsOversizedBox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(100, 80, gocv.MatTypeCV8UC3)
	defer frame.Close()

	out, err := cropSquare(frame, image.Rect(-20, -20, 140, 140), 64)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 64, out.Cols())
	assert.Equal(t, 64, out.Rows())
}

func TestEncodeFlowStaticPairIsNearBlack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	prev := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8U)
	defer prev.Close()
	gocv.Rectangle(&prev, image.Rect(20, 20, 44, 44), colorWhite(), -1)
	next := prev.Clone()
	defer next.Close()

	flow, err := encodeFlow(prev, next)
	require.NoError(t, err)
	defer flow.Close()

	assert.Equal(t, 64, flow.Cols())
	assert.Equal(t, 64, flow.Rows())
	assert.Equal(t, 3, flow.Channels())

	for _, b := range flow.ToBytes() {
		assert.LessOrEqual(t, b, uint8(2), "static pair must encode to near-zero value")
	}
}

func TestEncodeFlowRejectsMismatchedSizes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	prev := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8U)
	defer prev.Close()
	next := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8U)
	defer next.Close()

	_, err := encodeFlow(prev, next)
	assert.Error(t, err)
}

func TestFallbackTrackerPolicy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	tracker := newFallbackTracker("face")

	// no detection yet: centered full-frame square
	box := tracker.box(frame, image.Rectangle{}, false)
	assert.Equal(t, centeredSquare(640, 480), box)

	// a successful detection is remembered
	det := image.Rect(100, 100, 180, 180)
	box = tracker.box(frame, det, true)
	assert.Equal(t, det, box)

	// and reused when the next detection fails
	box = tracker.box(frame, image.Rectangle{}, false)
	assert.Equal(t, det, box)
}

func colorWhite() color.RGBA {
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
