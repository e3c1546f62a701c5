package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	UploadDir string `toml:"upload_dir"`
	AudioDir  string `toml:"audio_dir"`
	WorkDir   string `toml:"work_dir"`
	ExportDir string `toml:"export_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Transcode contains ffmpeg/ffprobe settings and the stream selection policy.
type Transcode struct {
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	DualStreamIndices []int  `toml:"dual_stream_indices"`
	AudioBitrate      string `toml:"audio_bitrate"`
	SampleRate        int    `toml:"sample_rate"`
}

// Detector contains the external music segment detector invocation.
type Detector struct {
	Command     string `toml:"command"`
	Script      string `toml:"script"`
	Sensitivity string `toml:"sensitivity"`
}

// Recognition contains the fingerprint recognition service settings.
type Recognition struct {
	APIToken        string `toml:"api_token"`
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	RequestDelayMS  int    `toml:"request_delay_ms"`
	ReturnPlatforms string `toml:"return_platforms"`
}

// Fallback contains the generative description service settings used when
// fingerprinting yields no artist and title.
type Fallback struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains per-run behaviour switches.
type Pipeline struct {
	RetainClips  bool `toml:"retain_clips"`
	RemoveSource bool `toml:"remove_source"`
}

// Export contains EDL rendering defaults.
type Export struct {
	FPS        int    `toml:"fps"`
	BaseHours  int    `toml:"base_hours"`
	ReelName   string `toml:"reel_name"`
	TrackLabel string `toml:"track_label"`
}

// Notifications configures ntfy job notifications. An empty topic
// disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ghearing.
//
// Configuration sections by subsystem:
//   - Paths: data, upload, audio, work, export, and log directories plus the API bind address
//   - Transcode: ffmpeg/ffprobe binaries and audio stream policy
//   - Detector: external segment detector command
//   - Recognition: fingerprint service credentials and pacing
//   - Fallback: generative description service
//   - Pipeline: clip retention and source cleanup
//   - Export: EDL defaults
//   - Notifications: optional ntfy topic for job results
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcode     Transcode     `toml:"transcode"`
	Detector      Detector      `toml:"detector"`
	Recognition   Recognition   `toml:"recognition"`
	Fallback      Fallback      `toml:"fallback"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Export        Export        `toml:"export"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ghearing/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults
// and environment fallbacks apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ghearing.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.UploadDir,
		c.Paths.AudioDir,
		c.Paths.WorkDir,
		c.Paths.ExportDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, DatabaseFileName)
}

// LockPath returns the lock file guarding a single API server per data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ghearing.lock")
}

// RecognitionEnabled reports whether a fingerprint API token is configured.
func (c *Config) RecognitionEnabled() bool {
	return strings.TrimSpace(c.Recognition.APIToken) != ""
}

// FallbackEnabled reports whether the generative fallback can be called.
func (c *Config) FallbackEnabled() bool {
	return c.Fallback.Enabled && strings.TrimSpace(c.Fallback.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
