package gifopt

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// subjectOnBackground draws a fg square of side inner centered on bg
func subjectOnBackground(side, inner int, bg, fg color.NRGBA) *image.NRGBA {
	img := nrgbaFill(side, side, bg)
	off := (side - inner) / 2
	for y := off; y < off+inner; y++ {
		for x := off; x < off+inner; x++ {
			img.SetNRGBA(x, y, fg)
		}
	}
	return img
}

func TestBorderStripperRemovesBackground(t *testing.T) {
	bg := color.NRGBA{R: 250, G: 250, B: 250, A: 0xff}
	fg := color.NRGBA{R: 200, G: 20, B: 20, A: 0xff}
	src := subjectOnBackground(64, 20, bg, fg)

	got, err := (&BorderStripper{}).Strip(src)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {63, 63}, {10, 32}, {32, 5}} {
		if a := alphaAt(got, p.X, p.Y); a != 0 {
			t.Errorf("background %v alpha = %d, want 0", p, a)
		}
	}
	if c := got.NRGBAAt(32, 32); c != fg {
		t.Errorf("foreground = %v, want %v", c, fg)
	}
	if alphaAt(src, 0, 0) != 0xff {
		t.Error("Strip modified its input")
	}
}

func TestBorderStripperWalksThroughPadding(t *testing.T) {
	// White band between transparent padding, as a padded landscape frame
	bg := color.NRGBA{R: 255, G: 255, B: 255, A: 0xff}
	fg := color.NRGBA{B: 180, A: 0xff}
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 10; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			img.SetNRGBA(x, y, fg)
		}
	}

	got, err := (&BorderStripper{Tolerance: 10}).Strip(img)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if a := alphaAt(got, 20, 12); a != 0 {
		t.Errorf("band pixel alpha = %d, want 0", a)
	}
	if c := got.NRGBAAt(20, 20); c != fg {
		t.Errorf("subject = %v, want %v", c, fg)
	}
}

func TestBorderStripperKeepsEnclosedRegions(t *testing.T) {
	// Background colored hole fully enclosed by the subject stays
	bg := color.NRGBA{R: 0, G: 200, B: 0, A: 0xff}
	fg := color.NRGBA{R: 90, G: 60, B: 30, A: 0xff}
	img := subjectOnBackground(30, 16, bg, fg)
	img.SetNRGBA(15, 15, bg)

	got, err := (&BorderStripper{}).Strip(img)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if a := alphaAt(got, 15, 15); a != 0xff {
		t.Errorf("enclosed pixel alpha = %d, want 255", a)
	}
}

func TestBorderStripperKeepsSolidFrame(t *testing.T) {
	// The key covers the whole frame, so there is no background to remove
	src := nrgbaFill(OutputSize, OutputSize, color.NRGBA{R: 0xff, A: 0xff})
	got, err := (&BorderStripper{Tolerance: 48}).Strip(src)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	for _, p := range []image.Point{{0, 0}, {64, 64}, {127, 127}} {
		if c := got.NRGBAAt(p.X, p.Y); c != src.NRGBAAt(p.X, p.Y) {
			t.Errorf("pixel %v = %v, want %v", p, c, src.NRGBAAt(p.X, p.Y))
		}
	}
}

func TestBorderStripperKeepsNearlyUniformFrame(t *testing.T) {
	// A subject a few pixels wide in a key-colored frame is below the floor
	bg := color.NRGBA{G: 0xff, A: 0xff}
	src := subjectOnBackground(OutputSize, 4, bg, color.NRGBA{R: 0xff, A: 0xff})
	got, err := (&BorderStripper{}).Strip(src)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if a := alphaAt(got, 0, 0); a != 0xff {
		t.Errorf("background alpha = %d, want frame left unchanged", a)
	}
}

func TestBorderStripperTransparentInput(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	got, err := (&BorderStripper{}).Strip(img)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v", got.Bounds())
	}
}

func TestNopStripperCopies(t *testing.T) {
	src := nrgbaFill(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	got, err := NopStripper{}.Strip(src)
	if err != nil {
		t.Fatal(err)
	}
	if got == src {
		t.Fatal("NopStripper returned its input")
	}
	if got.NRGBAAt(1, 1) != src.NRGBAAt(1, 1) {
		t.Errorf("pixel = %v, want %v", got.NRGBAAt(1, 1), src.NRGBAAt(1, 1))
	}
}

func TestNewStripper(t *testing.T) {
	tests := []struct {
		kind    string
		want    any
		wantErr bool
	}{
		{"", &BorderStripper{}, false},
		{StripperBorder, &BorderStripper{}, false},
		{StripperNone, NopStripper{}, false},
		{"magic", nil, true},
	}
	for _, tt := range tests {
		s, err := NewStripper(StripperOptions{Kind: tt.kind})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewStripper(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			continue
		}
		switch tt.want.(type) {
		case *BorderStripper:
			if _, ok := s.(*BorderStripper); !ok {
				t.Errorf("NewStripper(%q) = %T, want *BorderStripper", tt.kind, s)
			}
		case NopStripper:
			if _, ok := s.(NopStripper); !ok {
				t.Errorf("NewStripper(%q) = %T, want NopStripper", tt.kind, s)
			}
		}
	}
}

func TestStripperFunc(t *testing.T) {
	called := false
	var s Stripper = StripperFunc(func(frame image.Image) (*image.NRGBA, error) {
		called = true
		return nil, errors.New("boom")
	})
	if _, err := s.Strip(image.NewNRGBA(image.Rect(0, 0, 1, 1))); err == nil || !called {
		t.Errorf("StripperFunc did not forward the call: err=%v called=%v", err, called)
	}
}
