package video

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// squareAround squarifies box about its center to side max(w, h), shifted
// to stay inside a width×height frame where possible. The result may still
// exceed the frame when the square is larger than the frame itself; the
// caller pads the overflow.
func squareAround(box image.Rectangle, width, height int) image.Rectangle {
	side := box.Dx()
	if box.Dy() > side {
		side = box.Dy()
	}

	cx := box.Min.X + box.Dx()/2
	cy := box.Min.Y + box.Dy()/2
	x := clampOffset(cx-side/2, side, width)
	y := clampOffset(cy-side/2, side, height)
	return image.Rect(x, y, x+side, y+side)
}

// clampOffset shifts a span of length side starting at off into [0, limit]
// when it fits; an oversized span is centered on the frame instead.
func clampOffset(off, side, limit int) int {
	if side >= limit {
		return (limit - side) / 2
	}
	if off < 0 {
		return 0
	}
	if off+side > limit {
		return limit - side
	}
	return off
}

// cropSquare cuts the squarified box out of frame, replicating border pixels
// for any part outside the frame, and resizes to exactly target×target.
func cropSquare(frame gocv.Mat, box image.Rectangle, target int) (gocv.Mat, error) {
	if target <= 0 {
		return gocv.Mat{}, fmt.Errorf("crop size %d must be positive", target)
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	sq := squareAround(box, frame.Cols(), frame.Rows())
	clip := sq.Intersect(bounds)
	if clip.Empty() {
		return gocv.Mat{}, fmt.Errorf("box %v has no overlap with frame %v", box, bounds)
	}

	region := frame.Region(clip)
	defer region.Close()

	var square gocv.Mat
	if clip != sq {
		square = gocv.NewMat()
		gocv.CopyMakeBorder(region, &square,
			clip.Min.Y-sq.Min.Y, sq.Max.Y-clip.Max.Y,
			clip.Min.X-sq.Min.X, sq.Max.X-clip.Max.X,
			gocv.BorderReplicate, color.RGBA{})
	} else {
		square = region.Clone()
	}
	defer square.Close()

	out := gocv.NewMat()
	gocv.Resize(square, &out, image.Pt(target, target), 0, 0, gocv.InterpolationLinear)
	return out, nil
}
