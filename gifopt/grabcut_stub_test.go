//go:build !gocv

package gifopt

import (
	"errors"
	"testing"
)

func TestGrabCutUnavailableWithoutTag(t *testing.T) {
	_, err := NewStripper(StripperOptions{Kind: StripperGrabCut})
	if !errors.Is(err, ErrStripperUnavailable) {
		t.Errorf("error = %v, want ErrStripperUnavailable", err)
	}
}
