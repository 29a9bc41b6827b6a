package gifopt

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Stripper removes the background from one frame. The result has the same
// dimensions as the input; background pixels have their alpha lowered
// toward 0 and foreground pixels pass through.
type Stripper interface {
	Strip(frame image.Image) (*image.NRGBA, error)
}

// StripperFunc adapts a plain function to Stripper.
type StripperFunc func(frame image.Image) (*image.NRGBA, error)

func (f StripperFunc) Strip(frame image.Image) (*image.NRGBA, error) { return f(frame) }

// NopStripper keeps every pixel.
type NopStripper struct{}

func (NopStripper) Strip(frame image.Image) (*image.NRGBA, error) {
	return imaging.Clone(frame), nil
}

// Stripper kinds accepted by NewStripper
const (
	StripperNone    = "none"
	StripperBorder  = "border"
	StripperGrabCut = "grabcut"
)

// StripperOptions configures NewStripper.
type StripperOptions struct {
	Kind       string
	Tolerance  int
	Iterations int
	BorderSize int
}

// NewStripper builds the stripper named by opts.Kind. An empty kind picks
// the border stripper.
func NewStripper(opts StripperOptions) (Stripper, error) {
	switch opts.Kind {
	case StripperNone:
		return NopStripper{}, nil
	case "", StripperBorder:
		return &BorderStripper{Tolerance: opts.Tolerance}, nil
	case StripperGrabCut:
		return newGrabCutStripper(opts.Iterations, opts.BorderSize)
	default:
		return nil, fmt.Errorf("unknown stripper kind %q", opts.Kind)
	}
}

const (
	defaultTolerance = 48
	// A fill leaving fewer than 1/minKeptRatio of the opaque pixels means
	// the key covers the subject too
	minKeptRatio = 100
)

// BorderStripper treats the dominant opaque color on the frame border as the
// background key and clears every pixel connected to the border whose color
// is within Tolerance of the key. Transparent pixels, such as square
// padding, are walked through so the key region is reached from any side.
// A frame whose fill would clear all or nearly all of its opaque pixels has
// no detectable background and is returned unchanged.
type BorderStripper struct {
	Tolerance int
}

func (s *BorderStripper) Strip(frame image.Image) (*image.NRGBA, error) {
	out := imaging.Clone(frame)
	bound := out.Bounds()
	w, h := bound.Dx(), bound.Dy()
	if w == 0 || h == 0 {
		return out, nil
	}

	tolerance := s.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}

	key, ok := borderKey(out)
	if !ok {
		// Border is fully transparent already
		return out, nil
	}

	// Pixels up to tolerance are cleared, up to 2x tolerance fade out
	near := tolerance * tolerance
	far := 4 * near

	visited := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if visited[i] {
			return
		}
		visited[i] = true
		queue = append(queue, i)
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	opaque := countOpaque(out)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		o := y*out.Stride + x*4
		p := out.Pix[o : o+4 : o+4]

		if p[3] != 0 {
			d := colorDistance(p, key)
			switch {
			case d <= near:
				p[3] = 0
			case d <= far:
				// Edge pixel: keep it but scale its alpha by how close it is
				// to the key, then stop walking.
				p[3] = uint8(int(p[3]) * (d - near) / (far - near))
				continue
			default:
				continue
			}
		}

		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	if kept := countOpaque(out); kept == 0 || kept < opaque/minKeptRatio {
		return imaging.Clone(frame), nil
	}
	return out, nil
}

func countOpaque(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] >= alphaThreshold {
			n++
		}
	}
	return n
}

// borderKey returns the most frequent opaque border color, bucketed to
// 4 bits per channel and averaged within the winning bucket.
func borderKey(img *image.NRGBA) (color.NRGBA, bool) {
	type bucket struct {
		count   int
		r, g, b int
	}
	buckets := make(map[uint16]*bucket)
	bound := img.Bounds()
	w, h := bound.Dx(), bound.Dy()

	add := func(x, y int) {
		i := y*img.Stride + x*4
		p := img.Pix[i : i+4 : i+4]
		if p[3] < alphaThreshold {
			return
		}
		k := uint16(p[0]>>4)<<8 | uint16(p[1]>>4)<<4 | uint16(p[2]>>4)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.count++
		b.r += int(p[0])
		b.g += int(p[1])
		b.b += int(p[2])
	}
	for x := 0; x < w; x++ {
		add(x, 0)
		if h > 1 {
			add(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		add(0, y)
		if w > 1 {
			add(w-1, y)
		}
	}

	var best *bucket
	var bestKey uint16
	for k, b := range buckets {
		// Lowest key wins ties so map order does not matter
		if best == nil || b.count > best.count || (b.count == best.count && k < bestKey) {
			best, bestKey = b, k
		}
	}
	if best == nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{
		R: uint8(best.r / best.count),
		G: uint8(best.g / best.count),
		B: uint8(best.b / best.count),
		A: 0xff,
	}, true
}

func colorDistance(p []uint8, c color.NRGBA) int {
	dr := int(p[0]) - int(c.R)
	dg := int(p[1]) - int(c.G)
	db := int(p[2]) - int(c.B)
	return dr*dr + dg*dg + db*db
}
