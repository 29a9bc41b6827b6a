package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Stripper  StripperConfig  `mapstructure:"stripper"`
	GrabCut   GrabCutConfig   `mapstructure:"grabcut"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type OptimizerConfig struct {
	Workers       int           `mapstructure:"workers"`
	MaxFrames     int           `mapstructure:"max_frames"`
	MaxPixels     int           `mapstructure:"max_pixels"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	QueueTimeout  time.Duration `mapstructure:"queue_timeout"`
}

type StripperConfig struct {
	Kind      string `mapstructure:"kind"`
	Tolerance int    `mapstructure:"tolerance"`
}

type GrabCutConfig struct {
	Iterations int `mapstructure:"iterations"`
	BorderSize int `mapstructure:"border_size"`
}

// DefaultPath is read when no configuration file is named explicitly.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. DISCORDGIF_SERVER_PORT.
const EnvPrefix = "DISCORDGIF"

// Load reads configuration from a YAML file on top of the defaults. An empty
// path loads defaults and environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults first, file and environment override them
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads configPath. When the file cannot be read it falls back to the
// defaults with environment overrides still applied.
func New(configPath string) *Config {
	cfg, err := Load(configPath)
	if err == nil {
		return cfg
	}
	if cfg, err = Load(""); err == nil {
		return cfg
	}
	return getDefaultConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"image/gif"})

	v.SetDefault("optimizer.workers", 0)
	v.SetDefault("optimizer.max_frames", 1000)
	v.SetDefault("optimizer.max_pixels", 2048*2048)
	v.SetDefault("optimizer.timeout", time.Minute)
	v.SetDefault("optimizer.max_concurrent", 1)
	v.SetDefault("optimizer.queue_timeout", 30*time.Second)

	v.SetDefault("stripper.kind", "border")
	v.SetDefault("stripper.tolerance", 48)

	v.SetDefault("grabcut.iterations", 5)
	v.SetDefault("grabcut.border_size", 4)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/gif"},
		},
		Optimizer: OptimizerConfig{
			Workers:       0,
			MaxFrames:     1000,
			MaxPixels:     2048 * 2048,
			Timeout:       time.Minute,
			MaxConcurrent: 1,
			QueueTimeout:  30 * time.Second,
		},
		Stripper: StripperConfig{
			Kind:      "border",
			Tolerance: 48,
		},
		GrabCut: GrabCutConfig{
			Iterations: 5,
			BorderSize: 4,
		},
	}
}
