package video

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// Farneback parameters, standard dense-flow settings.
const (
	flowPyrScale   = 0.5
	flowLevels     = 3
	flowWinSize    = 15
	flowIterations = 3
	flowPolyN      = 5
	flowPolySigma  = 1.2
)

// encodeFlow computes dense optical flow between two grayscale frames and
// encodes the vector field as an RGB image through HSV: hue carries the
// motion angle (0..180 in OpenCV's hue range), saturation is fixed at 255,
// value is the magnitude min-max normalized over this frame pair. A static
// pair therefore encodes to value 0 everywhere, with hue 0 where the
// magnitude is 0.
func encodeFlow(prev, next gocv.Mat) (gocv.Mat, error) {
	if prev.Cols() != next.Cols() || prev.Rows() != next.Rows() {
		return gocv.Mat{}, fmt.Errorf("flow frames differ in size: %dx%d vs %dx%d",
			prev.Cols(), prev.Rows(), next.Cols(), next.Rows())
	}

	flow := gocv.NewMat()
	defer flow.Close()
	gocv.CalcOpticalFlowFarneback(prev, next, &flow,
		flowPyrScale, flowLevels, flowWinSize, flowIterations, flowPolyN, flowPolySigma, 0)

	comps := gocv.Split(flow)
	defer closeMats(comps)

	mag := gocv.NewMat()
	defer mag.Close()
	ang := gocv.NewMat()
	defer ang.Close()
	gocv.CartToPolar(comps[0], comps[1], &mag, &ang, false)

	// radians → hue in 0..180
	ang.MultiplyFloat(float32(90.0 / math.Pi))

	value := gocv.NewMat()
	defer value.Close()
	gocv.Normalize(mag, &value, 0, 255, gocv.NormMinMax)

	saturation := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0),
		prev.Rows(), prev.Cols(), gocv.MatTypeCV32F)
	defer saturation.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.Merge([]gocv.Mat{ang, saturation, value}, &hsv)

	hsv8 := gocv.NewMat()
	defer hsv8.Close()
	hsv.ConvertTo(&hsv8, gocv.MatTypeCV8UC3)

	rgb := gocv.NewMat()
	gocv.CvtColor(hsv8, &rgb, gocv.ColorHSVToRGB)
	return rgb, nil
}
