package gifopt

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"

	"github.com/disintegration/imaging"
)

// EncodedAnimation is one encode result. Its size is always measured on the
// buffer, never estimated.
type EncodedAnimation struct {
	Data     []byte
	Frames   int
	Duration int // per-frame, milliseconds
	Palette  PaletteMode
}

// SizeKB is len(Data)/1024.
func (a *EncodedAnimation) SizeKB() float64 {
	return float64(len(a.Data)) / 1024
}

// Fits reports whether the buffer is at most limitKB kilobytes.
func (a *EncodedAnimation) Fits(limitKB int) bool {
	return len(a.Data) <= limitKB*1024
}

// AnimationEncoder is the encode contract the cascade depends on.
type AnimationEncoder interface {
	Encode(frames []image.Image, durationMS int, mode PaletteMode) (*EncodedAnimation, error)
}

// Encoder writes looping GIFs into memory.
type Encoder struct{}

// Encode quantizes every frame to mode, trims each frame to its visible
// region and writes an infinitely looping GIF. It never touches the input
// frames.
func (Encoder) Encode(frames []image.Image, durationMS int, mode PaletteMode) (*EncodedAnimation, error) {
	if len(frames) == 0 {
		return nil, &EncodeError{Frames: 0, Duration: durationMS, Err: ErrEmptyFrames}
	}
	if durationMS <= 0 {
		return nil, &EncodeError{Frames: len(frames), Duration: durationMS, Err: ErrInvalidDuration}
	}

	canvas := frames[0].Bounds().Size()
	delay := centiseconds(durationMS)
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0, // forever
		Config:    image.Config{Width: canvas.X, Height: canvas.Y},
	}

	for i, frame := range frames {
		anim.Image[i] = encodeFrame(frame, canvas, mode.limit())
		anim.Delay[i] = delay
		// Every frame is a full picture, so whatever it drew is cleared
		// before the next one. Cropped frames rely on this.
		anim.Disposal[i] = gif.DisposalBackground
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &EncodeError{Frames: len(frames), Duration: durationMS, Err: err}
	}

	return &EncodedAnimation{
		Data:     buf.Bytes(),
		Frames:   len(frames),
		Duration: durationMS,
		Palette:  mode,
	}, nil
}

// encodeFrame aligns the frame to a canvas-sized origin, crops it to the
// bounding box of its visible pixels and maps it onto an adaptive palette.
func encodeFrame(frame image.Image, canvas image.Point, limit int) *image.Paletted {
	img := imaging.Clone(frame)
	if img.Rect.Size() != canvas {
		img = imaging.Paste(imaging.New(canvas.X, canvas.Y, color.NRGBA{}), img, image.Point{})
	}

	rect := visibleBounds(img)
	if rect.Empty() {
		// Nothing visible; a single transparent pixel keeps the frame timing
		rect = image.Rect(0, 0, 1, 1)
	}
	return nrgbaToPaletted(img, rect, adaptivePalette(img, rect, limit))
}

// visibleBounds is the smallest rectangle holding every pixel that will not
// be encoded as transparent.
func visibleBounds(img *image.NRGBA) image.Rectangle {
	bound := img.Bounds()
	minX, minY := bound.Max.X, bound.Max.Y
	maxX, maxY := bound.Min.X-1, bound.Min.Y-1

	for y := bound.Min.Y; y < bound.Max.Y; y++ {
		for x := bound.Min.X; x < bound.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] < alphaThreshold {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// centiseconds converts milliseconds to GIF delay units, rounding to the
// nearest unit and never below one.
func centiseconds(ms int) int {
	return max((ms+5)/10, 1)
}
