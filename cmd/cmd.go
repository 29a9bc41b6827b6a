package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"discord-gif/config"
	"discord-gif/gifopt"
	"discord-gif/utils"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X discord-gif/cmd.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "YAML configuration file",
	Aliases: []string{"c"},
	Value:   config.DefaultPath,
}

var Cmd = &cli.Command{
	Name:    "discord-gif",
	Usage:   "Squash a gif into a 128x128, background-free animation under 256KB",
	Version: Version,
	Commands: []*cli.Command{
		optimizeCmd,
		serveCmd,
	},
}

var optimizeCmd = &cli.Command{
	Name:      "optimize",
	Usage:     "Optimize one gif and save the result next to it",
	ArgsUsage: "<file.gif>",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{
			Name:    "output",
			Usage:   "Directory to save the optimized gif in (default: next to the input)",
			Aliases: []string{"o"},
		},
		&cli.BoolFlag{
			Name:  "no-strip",
			Usage: "Keep the background",
			Value: false,
		},
	},
	Action: optimize,
}

func optimize(ctx context.Context, c *cli.Command) (err error) {
	p := c.Args().First()
	if p == "" {
		cli.ShowAppHelpAndExit(c, 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("❌ Failed loading config: %s", err), 1)
	}
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		return cli.Exit(fmt.Sprintf("❌ Failed initializing logger: %s", err), 1)
	}
	defer utils.Sync()

	if c.Bool("no-strip") {
		cfg.Stripper.Kind = gifopt.StripperNone
	}
	optimizer, err := newOptimizer(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("❌ %s", err), 1)
	}

	data, err := readPath(p)
	if err != nil {
		return cli.Exit(fmt.Sprintf("❌ Failed reading input: %s", err), 1)
	}

	if cfg.Optimizer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Optimizer.Timeout)
		defer cancel()
	}

	result, err := optimizer.Process(ctx, data)
	if err != nil {
		var decodeErr *gifopt.DecodeError
		if errors.As(err, &decodeErr) {
			return cli.Exit(fmt.Sprintf("❌ Failed decoding '%s': %s", p, decodeErr.Err), 1)
		}
		return cli.Exit(fmt.Sprintf("❌ Failed optimizing '%s': %s", p, err), 1)
	}

	for _, a := range result.Attempts {
		mark := "🟡"
		if a.Accepted {
			mark = "🟢"
		}
		fmt.Printf("%s %s: %d frames, %dms, palette %s, %.2f KB\n",
			mark, a.State, a.Frames, a.Duration, a.Palette, a.SizeKB)
	}

	if !result.Succeeded() {
		return cli.Exit("❌ Unable to optimize the GIF further. Consider reducing the input size.", 1)
	}

	outDir := c.String("output")
	if outDir == "" {
		outDir = filepath.Dir(p)
	}
	outPath := filepath.Join(outDir, result.Tier.Filename)
	if err := saveGif(outPath, result.Animation); err != nil {
		utils.Logger.Error("failed saving gif", zap.String("path", outPath), zap.Error(err))
		return cli.Exit(fmt.Sprintf("❌ Failed saving '%s': %s", outPath, err), 1)
	}

	fmt.Printf("🟢 Saved %s '%s' (%.2f KB)\n", result.Tier.Caption, outPath, result.Animation.SizeKB())
	return nil
}

// loadConfig reads the --config file. The default path may be absent, a
// path given on the command line must load.
func loadConfig(c *cli.Command) (*config.Config, error) {
	return resolveConfig(c.String("config"), c.IsSet("config"))
}

func resolveConfig(path string, explicit bool) (*config.Config, error) {
	if explicit {
		return config.Load(path)
	}
	if _, err := os.Stat(path); err != nil {
		return config.New(""), nil
	}
	return config.Load(path)
}

// newOptimizer wires the core from configuration
func newOptimizer(cfg *config.Config) (*gifopt.Optimizer, error) {
	stripper, err := gifopt.NewStripper(gifopt.StripperOptions{
		Kind:       cfg.Stripper.Kind,
		Tolerance:  cfg.Stripper.Tolerance,
		Iterations: cfg.GrabCut.Iterations,
		BorderSize: cfg.GrabCut.BorderSize,
	})
	if err != nil {
		return nil, err
	}

	return gifopt.NewOptimizer(gifopt.OptimizerConfig{
		Limits: gifopt.Limits{
			MaxBytes:  int(cfg.Upload.MaxSize),
			MaxFrames: cfg.Optimizer.MaxFrames,
			MaxPixels: cfg.Optimizer.MaxPixels,
		},
		Stripper: stripper,
		Workers:  cfg.Optimizer.Workers,
		Logger:   utils.Logger,
	}), nil
}
