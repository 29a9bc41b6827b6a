//go:build gocv

package gifopt

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// GrabCut mask labels, see cv::GrabCutClasses
const (
	gcForeground         = 1
	gcProbableForeground = 3
)

// GrabCutStripper segments each frame with OpenCV GrabCut seeded by a
// rectangle inset from the border, then clears alpha outside the foreground.
type GrabCutStripper struct {
	iterations int
	borderSize int
}

func newGrabCutStripper(iterations, borderSize int) (Stripper, error) {
	if iterations <= 0 {
		iterations = 5
	}
	if borderSize <= 0 {
		borderSize = 4
	}
	return &GrabCutStripper{iterations: iterations, borderSize: borderSize}, nil
}

func (s *GrabCutStripper) Strip(frame image.Image) (*image.NRGBA, error) {
	out := imaging.Clone(frame)
	width, height := out.Rect.Dx(), out.Rect.Dy()
	if width <= 2*s.borderSize+1 || height <= 2*s.borderSize+1 {
		return out, nil
	}

	img, err := gocv.ImageToMatRGB(out)
	if err != nil {
		return nil, fmt.Errorf("grabcut: convert frame: %w", err)
	}
	defer img.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	initRect := image.Rect(s.borderSize, s.borderSize, width-s.borderSize, height-s.borderSize)
	gocv.GrabCut(img, &mask, initRect, &bgdModel, &fgdModel, s.iterations, gocv.GCInitWithRect)
	if mask.Empty() {
		return out, nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			label := mask.GetUCharAt(y, x)
			if label != gcForeground && label != gcProbableForeground {
				out.Pix[y*out.Stride+x*4+3] = 0
			}
		}
	}
	return out, nil
}
