//go:build !gocv

package gifopt

import "fmt"

func newGrabCutStripper(iterations, borderSize int) (Stripper, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags gocv for %q", ErrStripperUnavailable, StripperGrabCut)
}
