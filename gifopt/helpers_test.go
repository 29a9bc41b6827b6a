package gifopt

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"math/rand"
	"testing"
)

var testPalette = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xff}, // black
	color.RGBA{0xff, 0x00, 0x00, 0xff}, // red
	color.RGBA{0x00, 0xff, 0x00, 0xff}, // green
	color.RGBA{0x00, 0x00, 0xff, 0xff}, // blue
	color.RGBA{0xff, 0xff, 0x00, 0xff}, // yellow
	color.RGBA{0xff, 0x00, 0xff, 0xff}, // magenta
	color.RGBA{0x00, 0xff, 0xff, 0xff}, // cyan
	color.RGBA{0xff, 0xff, 0xff, 0xff}, // white
}

// solidFrame is a w x h frame filled with one testPalette entry
func solidFrame(w, h int, index uint8) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), testPalette)
	for i := range img.Pix {
		img.Pix[i] = index
	}
	return img
}

// noiseFrame is a w x h frame of random Plan9 colors
func noiseFrame(rng *rand.Rand, w, h int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(len(palette.Plan9)))
	}
	return img
}

// simpleFrames returns n solid frames cycling through testPalette
func simpleFrames(n, w, h int) []*image.Paletted {
	frames := make([]*image.Paletted, n)
	for i := range frames {
		frames[i] = solidFrame(w, h, uint8(i%len(testPalette)))
	}
	return frames
}

func noiseFrames(seed int64, n, w, h int) []*image.Paletted {
	rng := rand.New(rand.NewSource(seed))
	frames := make([]*image.Paletted, n)
	for i := range frames {
		frames[i] = noiseFrame(rng, w, h)
	}
	return frames
}

// encodeGIF writes frames as a GIF with the given delay in centiseconds
func encodeGIF(t *testing.T, frames []*image.Paletted, delay int) []byte {
	t.Helper()
	g := &gif.GIF{Image: frames, Delay: make([]int, len(frames))}
	for i := range g.Delay {
		g.Delay[i] = delay
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode test gif: %v", err)
	}
	return buf.Bytes()
}

func toImages(frames []*image.Paletted) []image.Image {
	out := make([]image.Image, len(frames))
	for i, f := range frames {
		out[i] = f
	}
	return out
}

// nrgbaFill is a w x h NRGBA image of one color
func nrgbaFill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func alphaAt(img *image.NRGBA, x, y int) uint8 {
	return img.NRGBAAt(x, y).A
}
