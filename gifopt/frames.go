package gifopt

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Normalize gives a frame that is
//   - OutputSize x OutputSize
//   - the source content centered on a transparent square before resizing
func Normalize(frame image.Image) *image.NRGBA {
	return resizeSquare(PadSquare(frame))
}

// PadSquare draws the frame on a transparent square canvas whose side is the
// longest edge of the frame. The content lands at ((s-w)/2, (s-h)/2).
func PadSquare(frame image.Image) *image.NRGBA {
	bound := frame.Bounds()
	w, h := bound.Dx(), bound.Dy()
	side := max(w, h)

	// imaging.PasteCenter rounds each half separately, which is off by one
	// for some odd differences, so the offset is computed here.
	background := imaging.New(side, side, color.NRGBA{})
	return imaging.Paste(background, frame, squareOffset(w, h))
}

func squareOffset(w, h int) image.Point {
	side := max(w, h)
	return image.Pt((side-w)/2, (side-h)/2)
}

// resizeSquare scales a padded frame to the output raster. Lanczos keeps
// edges sharp on downscale and imaging weights by alpha, so the transparent
// padding does not bleed dark fringes into the content.
func resizeSquare(square *image.NRGBA) *image.NRGBA {
	bound := square.Bounds()
	if bound.Dx() == OutputSize && bound.Dy() == OutputSize {
		return imaging.Clone(square)
	}
	return imaging.Resize(square, OutputSize, OutputSize, imaging.Lanczos)
}
