package gifopt

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ericpauley/go-quantize/quantize"
)

// PaletteMode selects how many palette entries a frame may use. The zero
// value means no reduction beyond the GIF limit of 256.
type PaletteMode struct {
	Colors int
}

// Adaptive limits every frame to at most n colors, transparency included,
// chosen from that frame's own color distribution.
func Adaptive(n int) PaletteMode {
	return PaletteMode{Colors: n}
}

func (m PaletteMode) limit() int {
	if m.Colors <= 0 || m.Colors > maxPaletteSize {
		return maxPaletteSize
	}
	return max(m.Colors, 2)
}

func (m PaletteMode) String() string {
	if m.Colors <= 0 {
		return "none"
	}
	return "adaptive-" + strconv.Itoa(m.Colors)
}

var quantizer = quantize.MedianCutQuantizer{}

// adaptivePalette returns at most limit-1 opaque colors for the visible
// pixels of img. Frames that already fit keep their exact colors in order of
// first appearance.
func adaptivePalette(img *image.NRGBA, rect image.Rectangle, limit int) color.Palette {
	opaque := limit - 1
	seen := make(map[uint32]struct{}, opaque+1)
	exact := make(color.Palette, 0, opaque)
	visible := 0

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			o := img.PixOffset(x, y)
			p := img.Pix[o : o+4 : o+4]
			if p[3] < alphaThreshold {
				continue
			}
			visible++
			if exact == nil {
				continue
			}
			k := rgbKey(p)
			if _, ok := seen[k]; ok {
				continue
			}
			if len(exact) == opaque {
				// Too many colors, fall back to the quantizer
				exact = nil
				continue
			}
			seen[k] = struct{}{}
			exact = append(exact, color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff})
		}
	}
	if exact != nil {
		return exact
	}

	// Only visible pixels take part in the palette choice. They are laid out
	// on a single opaque row for the quantizer.
	row := image.NewNRGBA(image.Rect(0, 0, visible, 1))
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			o := img.PixOffset(x, y)
			p := img.Pix[o : o+4 : o+4]
			if p[3] < alphaThreshold {
				continue
			}
			row.Pix[i], row.Pix[i+1], row.Pix[i+2], row.Pix[i+3] = p[0], p[1], p[2], 0xff
			i += 4
		}
	}
	return dedupe(quantizer.Quantize(make(color.Palette, 0, opaque), row))
}

// nrgbaToPaletted maps the rect of img onto the palette plus one trailing
// transparent entry. Pixels below alphaThreshold become transparent, the
// rest use the nearest opaque entry.
func nrgbaToPaletted(img *image.NRGBA, rect image.Rectangle, opaque color.Palette) *image.Paletted {
	palette := make(color.Palette, len(opaque), len(opaque)+1)
	copy(palette, opaque)
	palette = append(palette, color.RGBA{})
	transparent := uint8(len(opaque))

	paletted := image.NewPaletted(rect, palette)
	lookup := make(map[uint32]uint8)

	// Direct color mapping, no dithering: noise costs more bytes than it
	// saves in banding at this size
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			o := img.PixOffset(x, y)
			p := img.Pix[o : o+4 : o+4]
			idx := transparent
			if p[3] >= alphaThreshold {
				k := rgbKey(p)
				cached, ok := lookup[k]
				if !ok {
					cached = uint8(opaque.Index(color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}))
					lookup[k] = cached
				}
				idx = cached
			}
			paletted.Pix[paletted.PixOffset(x, y)] = idx
		}
	}
	return paletted
}

func rgbKey(p []uint8) uint32 {
	return uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
}

func dedupe(p color.Palette) color.Palette {
	seen := make(map[color.RGBA]struct{}, len(p))
	out := p[:0]
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		k := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
