package gifopt

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"

	"github.com/disintegration/imaging"
)

// SourceAnimation is a decoded upload: fully composited frames plus the
// duration every frame is shown for.
type SourceAnimation struct {
	Frames   []image.Image
	Duration int // milliseconds
	Width    int
	Height   int
}

// DecodeReader reads at most limits.MaxBytes from r and decodes it.
func DecodeReader(r io.Reader, limits Limits) (*SourceAnimation, error) {
	limits = limits.withDefaults()
	data, err := io.ReadAll(io.LimitReader(r, int64(limits.MaxBytes)+1))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return Decode(data, limits)
}

// Decode turns GIF bytes into a SourceAnimation. Invalid bytes give a
// *DecodeError, uploads beyond limits give ErrTooLarge.
func Decode(data []byte, limits Limits) (*SourceAnimation, error) {
	limits = limits.withDefaults()
	if len(data) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), limits.MaxBytes)
	}

	// Check the logical screen before decoding any pixel data
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if cfg.Width*cfg.Height > limits.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels, limit %d", ErrTooLarge, cfg.Width, cfg.Height, limits.MaxPixels)
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(g.Image) == 0 {
		return nil, &DecodeError{Err: ErrNoFrames}
	}
	if len(g.Image) > limits.MaxFrames {
		return nil, fmt.Errorf("%w: %d frames, limit %d", ErrTooLarge, len(g.Image), limits.MaxFrames)
	}

	return composite(g), nil
}

// composite replays the frames on the logical screen so every output frame
// is a complete picture, honoring each frame's disposal method.
func composite(g *gif.GIF) *SourceAnimation {
	width, height := g.Config.Width, g.Config.Height
	if width <= 0 || height <= 0 {
		bound := g.Image[0].Bounds()
		width, height = bound.Max.X, bound.Max.Y
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	var previous *image.NRGBA
	frames := make([]image.Image, 0, len(g.Image))

	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = imaging.Clone(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		frames = append(frames, imaging.Clone(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if previous != nil {
				copy(canvas.Pix, previous.Pix)
			}
		}
	}

	return &SourceAnimation{
		Frames:   frames,
		Duration: sourceDuration(g),
		Width:    width,
		Height:   height,
	}
}

// sourceDuration is the first frame's delay in milliseconds. GIF delays are
// in hundredths of a second.
func sourceDuration(g *gif.GIF) int {
	if len(g.Delay) == 0 || g.Delay[0] <= 0 {
		return DefaultDuration
	}
	return g.Delay[0] * 10
}
