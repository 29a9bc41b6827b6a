package gifopt

// Discord sticker/emote constraints the optimizer has to meet
const (
	MaxSizeKB       = 256              // Maximum accepted output size in KB
	OutputSize      = 128              // Output frames are OutputSize x OutputSize
	DefaultDuration = 100              // Frame duration (ms) when the source has none
	alphaThreshold  = 0x80             // NRGBA alpha below this is encoded as transparent
	maxPaletteSize  = 256              // Largest palette a GIF frame can carry
	defaultMaxBytes = 32 * 1024 * 1024 // Upload byte limit when Limits.MaxBytes is zero
	defaultMaxPix   = 4096 * 4096      // Canvas pixel limit when Limits.MaxPixels is zero
	defaultMaxFrame = 2000             // Frame count limit when Limits.MaxFrames is zero
)

// Limits bounds the work a single run may do. It is checked before any
// frame is normalized.
type Limits struct {
	MaxBytes  int
	MaxFrames int
	MaxPixels int
}

func (l Limits) withDefaults() Limits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = defaultMaxBytes
	}
	if l.MaxFrames <= 0 {
		l.MaxFrames = defaultMaxFrame
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = defaultMaxPix
	}
	return l
}
