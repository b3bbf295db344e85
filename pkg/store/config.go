// Package store holds local concerns: configuration and the offline
// window cache. The remote queue stays the source of truth; nothing here
// is ever written back to it.
package store

import (
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// Config exposes the settings the CLI and TUI need.
type Config interface {
	APIBase() string
	Token() string
	RefreshInterval() time.Duration
	DefaultPlatform() queue.Platform
	DefaultMode() timeutil.Mode
	CachePath() string
}

// LoadConfig reads the .slate config file (current directory or an
// override path), with SLATE_* environment variables taking precedence.
func LoadConfig() (Config, error) {
	viper.SetDefault("api", "http://localhost:8787")
	viper.SetDefault("token", "")
	viper.SetDefault("refresh", timeutil.DefaultInterval)
	viper.SetDefault("platform", string(queue.Platforms()[0]))
	viper.SetDefault("mode", string(timeutil.ModeWeek))
	viper.SetDefault("cache", "~/.slate.cache")

	viper.SetConfigName(".slate") // .yaml is implicit
	viper.SetEnvPrefix("SLATE")
	viper.AutomaticEnv()

	if override := os.Getenv("SLATE_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}
	viper.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	refresh, _, err := timeutil.ParseInterval(viper.GetString("refresh"))
	if err != nil {
		return nil, fmt.Errorf("config refresh interval: %w", err)
	}

	mode, err := timeutil.ParseMode(viper.GetString("mode"))
	if err != nil {
		return nil, fmt.Errorf("config mode: %w", err)
	}

	platform := queue.Platform(viper.GetString("platform"))
	if !platform.Valid() {
		return nil, fmt.Errorf("config platform: %w: %q", queue.ErrInvalidItem, platform)
	}

	cachePath, err := homedir.Expand(viper.GetString("cache"))
	if err != nil {
		return nil, fmt.Errorf("config cache path: %w", err)
	}

	return &fileConfig{
		API:      viper.GetString("api"),
		Bearer:   viper.GetString("token"),
		Refresh:  refresh,
		Platform: platform,
		Mode:     mode,
		Cache:    cachePath,
	}, nil
}

type fileConfig struct {
	API      string         `json:"api"`
	Bearer   string         `json:"token"`
	Refresh  time.Duration  `json:"refresh"`
	Platform queue.Platform `json:"platform"`
	Mode     timeutil.Mode  `json:"mode"`
	Cache    string         `json:"cache"`
}

func (f *fileConfig) APIBase() string                 { return f.API }
func (f *fileConfig) Token() string                   { return f.Bearer }
func (f *fileConfig) RefreshInterval() time.Duration  { return f.Refresh }
func (f *fileConfig) DefaultPlatform() queue.Platform { return f.Platform }
func (f *fileConfig) DefaultMode() timeutil.Mode      { return f.Mode }
func (f *fileConfig) CachePath() string               { return f.Cache }
