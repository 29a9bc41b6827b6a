package gifopt

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pipeline normalizes and strips every frame of an animation.
type Pipeline struct {
	Stripper Stripper
	Workers  int
}

// Prepare returns one new OutputSize x OutputSize frame per source frame, in
// source order. Frames are independent, so they are processed concurrently;
// each goroutine owns exactly one index of the result.
func (p *Pipeline) Prepare(ctx context.Context, frames []image.Image) ([]image.Image, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	stripper := p.Stripper
	if stripper == nil {
		stripper = NopStripper{}
	}

	// Limit concurrent processing
	maxWorkers := p.Workers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if len(frames) < maxWorkers {
		maxWorkers = len(frames)
	}

	prepared := make([]image.Image, len(frames))
	errs := make([]error, len(frames))

	// Use semaphore to control concurrency
	semaphore := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, frame := range frames {
		wg.Add(1)
		go func(i int, frame image.Image) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			prepared[i], errs[i] = prepareFrame(stripper, frame)
		}(i, frame)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return prepared, nil
}

func prepareFrame(stripper Stripper, frame image.Image) (image.Image, error) {
	normalized := Normalize(frame)
	stripped, err := stripper.Strip(normalized)
	if err != nil {
		return nil, err
	}
	if stripped == nil || stripped.Bounds().Size() != normalized.Bounds().Size() {
		return nil, ErrStripperContract
	}
	return stripped, nil
}

// Optimizer runs one upload from bytes to a cascade result.
type Optimizer struct {
	limits   Limits
	pipeline *Pipeline
	cascade  *Cascade
	logger   *zap.Logger
}

// OptimizerConfig wires an Optimizer. Zero values fall back to defaults.
type OptimizerConfig struct {
	Limits   Limits
	Stripper Stripper
	Workers  int
	Encoder  AnimationEncoder
	Logger   *zap.Logger
}

func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		limits:   cfg.Limits.withDefaults(),
		pipeline: &Pipeline{Stripper: cfg.Stripper, Workers: cfg.Workers},
		cascade:  NewCascade(cfg.Encoder, WithLogger(logger)),
		logger:   logger,
	}
}

// Process decodes data, prepares its frames and runs the cascade. A
// StateFailed result is returned without error.
func (o *Optimizer) Process(ctx context.Context, data []byte) (*Result, error) {
	startTime := time.Now()

	source, err := Decode(data, o.limits)
	if err != nil {
		return nil, err
	}
	o.logger.Info("gif decoded",
		zap.Int("frames", len(source.Frames)),
		zap.Int("width", source.Width),
		zap.Int("height", source.Height),
		zap.Int("duration_ms", source.Duration))

	frames, err := o.pipeline.Prepare(ctx, source.Frames)
	if err != nil {
		return nil, err
	}

	result, err := o.cascade.Run(ctx, frames, source.Duration)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("state", result.State.String()),
		zap.Int("attempts", len(result.Attempts)),
		zap.Duration("cost", time.Since(startTime)),
	}
	if result.Succeeded() {
		fields = append(fields, zap.String("tier", result.Tier.Name), zap.Float64("size_kb", result.Animation.SizeKB()))
	}
	o.logger.Info("gif processed", fields...)
	return result, nil
}
