package gifopt

import (
	"context"
	"image"

	"go.uber.org/zap"
)

// State is a step of the size reduction cascade.
type State int

const (
	StateFull State = iota
	StatePalette64
	StateSkipPalette32
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFull:
		return "ATTEMPT_1_FULL"
	case StatePalette64:
		return "ATTEMPT_2_PALETTE64"
	case StateSkipPalette32:
		return "ATTEMPT_3_SKIP_PALETTE32"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further attempt follows s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Tier is one fixed encode attempt: which frames to keep, how many colors
// each may use and how much longer each is shown.
type Tier struct {
	State              State
	Name               string
	Stride             int // keep frames 0, Stride, 2*Stride, ...
	Colors             int // 0 keeps the full GIF palette
	DurationMultiplier int
	Filename           string
	Caption            string
}

// DefaultTiers returns the three attempts in the order they are tried.
func DefaultTiers() []Tier {
	return []Tier{
		{
			State:              StateFull,
			Name:               "optimized",
			Stride:             1,
			DurationMultiplier: 1,
			Filename:           "optimized_output.gif",
			Caption:            "Optimized GIF",
		},
		{
			State:              StatePalette64,
			Name:               "further_optimized",
			Stride:             1,
			Colors:             64,
			DurationMultiplier: 1,
			Filename:           "further_optimized_output.gif",
			Caption:            "Further Optimized GIF",
		},
		// Half the frames shown twice as long keeps playback time
		{
			State:              StateSkipPalette32,
			Name:               "final_optimized",
			Stride:             2,
			Colors:             32,
			DurationMultiplier: 2,
			Filename:           "final_optimized_output.gif",
			Caption:            "Final Optimized GIF",
		},
	}
}

// CascadeAttempt is everything one encode needs. It is derived from the
// normalized frames alone and shares no state with other attempts.
type CascadeAttempt struct {
	Tier     Tier
	Frames   []image.Image
	Duration int
	Palette  PaletteMode
}

// Derive builds the attempt for tier from the normalized frames and their
// base duration.
func Derive(tier Tier, frames []image.Image, duration int) CascadeAttempt {
	stride := max(tier.Stride, 1)
	kept := make([]image.Image, 0, (len(frames)+stride-1)/stride)
	for i := 0; i < len(frames); i += stride {
		kept = append(kept, frames[i])
	}
	return CascadeAttempt{
		Tier:     tier,
		Frames:   kept,
		Duration: duration * max(tier.DurationMultiplier, 1),
		Palette:  PaletteMode{Colors: tier.Colors},
	}
}

// AttemptReport records one encode of a run.
type AttemptReport struct {
	State    State
	Tier     string
	Frames   int
	Duration int
	Palette  string
	SizeKB   float64
	Accepted bool
}

// Result is the outcome of a cascade run. Animation and Tier are set only
// when State is StateSucceeded.
type Result struct {
	State     State
	Tier      *Tier
	Animation *EncodedAnimation
	Attempts  []AttemptReport
}

// Succeeded reports whether an attempt fit under the limit.
func (r *Result) Succeeded() bool {
	return r.State == StateSucceeded
}

// Cascade runs the tiers in order and keeps the first encode that fits the
// size limit.
type Cascade struct {
	encoder AnimationEncoder
	tiers   []Tier
	limitKB int
	logger  *zap.Logger
}

// CascadeOption customizes NewCascade.
type CascadeOption func(*Cascade)

// WithTiers replaces DefaultTiers.
func WithTiers(tiers []Tier) CascadeOption {
	return func(c *Cascade) { c.tiers = tiers }
}

// WithLimitKB replaces MaxSizeKB.
func WithLimitKB(kb int) CascadeOption {
	return func(c *Cascade) { c.limitKB = kb }
}

// WithLogger sets the logger attempts are reported to.
func WithLogger(logger *zap.Logger) CascadeOption {
	return func(c *Cascade) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCascade(encoder AnimationEncoder, opts ...CascadeOption) *Cascade {
	if encoder == nil {
		encoder = Encoder{}
	}
	c := &Cascade{
		encoder: encoder,
		tiers:   DefaultTiers(),
		limitKB: MaxSizeKB,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run encodes frames tier by tier. Running out of tiers is not an error: the
// result carries StateFailed. Errors are encoder contract violations or a
// done context, both checked before each attempt.
func (c *Cascade) Run(ctx context.Context, frames []image.Image, duration int) (*Result, error) {
	result := &Result{}

	for i := range c.tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tier := c.tiers[i]
		attempt := Derive(tier, frames, duration)
		encoded, err := c.encoder.Encode(attempt.Frames, attempt.Duration, attempt.Palette)
		if err != nil {
			c.logger.Error("encode failed",
				zap.String("state", tier.State.String()),
				zap.Int("frames", len(attempt.Frames)),
				zap.Int("duration_ms", attempt.Duration),
				zap.Error(err))
			return nil, err
		}

		accepted := encoded.Fits(c.limitKB)
		result.Attempts = append(result.Attempts, AttemptReport{
			State:    tier.State,
			Tier:     tier.Name,
			Frames:   len(attempt.Frames),
			Duration: attempt.Duration,
			Palette:  attempt.Palette.String(),
			SizeKB:   encoded.SizeKB(),
			Accepted: accepted,
		})
		c.logger.Info("cascade attempt",
			zap.String("state", tier.State.String()),
			zap.Int("frames", len(attempt.Frames)),
			zap.Int("duration_ms", attempt.Duration),
			zap.String("palette", attempt.Palette.String()),
			zap.Float64("size_kb", encoded.SizeKB()),
			zap.Bool("accepted", accepted))

		if accepted {
			result.State = StateSucceeded
			result.Tier = &tier
			result.Animation = encoded
			return result, nil
		}
	}

	result.State = StateFailed
	return result, nil
}
