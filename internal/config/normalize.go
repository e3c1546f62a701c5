package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscode()
	c.normalizeDetector()
	c.normalizeRecognition()
	c.normalizeFallback()
	c.normalizeExport()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.upload_dir", &c.Paths.UploadDir, defaultUploadDir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.export_dir", &c.Paths.ExportDir, defaultExportDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = envValue("GHEARING_API_TOKEN")
	}
	return nil
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	if len(c.Transcode.DualStreamIndices) == 0 {
		c.Transcode.DualStreamIndices = []int{1, 2}
	}
	c.Transcode.AudioBitrate = strings.TrimSpace(c.Transcode.AudioBitrate)
	if c.Transcode.AudioBitrate == "" {
		c.Transcode.AudioBitrate = defaultAudioBitrate
	}
	if c.Transcode.SampleRate == 0 {
		c.Transcode.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeDetector() {
	c.Detector.Command = strings.TrimSpace(c.Detector.Command)
	if c.Detector.Command == "" {
		c.Detector.Command = defaultDetectorCommand
	}
	c.Detector.Script = strings.TrimSpace(c.Detector.Script)
	c.Detector.Sensitivity = strings.ToLower(strings.TrimSpace(c.Detector.Sensitivity))
	if c.Detector.Sensitivity == "" {
		c.Detector.Sensitivity = defaultDetectorSensitivity
	}
}

func (c *Config) normalizeRecognition() {
	c.Recognition.APIToken = strings.TrimSpace(c.Recognition.APIToken)
	if c.Recognition.APIToken == "" {
		c.Recognition.APIToken = envValue("AUDD_API_TOKEN")
	}
	c.Recognition.BaseURL = strings.TrimSpace(c.Recognition.BaseURL)
	if c.Recognition.BaseURL == "" {
		c.Recognition.BaseURL = defaultRecognitionBaseURL
	}
	if c.Recognition.TimeoutSeconds == 0 {
		c.Recognition.TimeoutSeconds = defaultRecognitionTimeoutSeconds
	}
	c.Recognition.ReturnPlatforms = strings.TrimSpace(c.Recognition.ReturnPlatforms)
	if c.Recognition.ReturnPlatforms == "" {
		c.Recognition.ReturnPlatforms = defaultRecognitionPlatforms
	}
}

func (c *Config) normalizeFallback() {
	c.Fallback.APIKey = strings.TrimSpace(c.Fallback.APIKey)
	if c.Fallback.APIKey == "" {
		c.Fallback.APIKey = envValue("OPENROUTER_API_KEY")
	}
	if c.Fallback.APIKey == "" {
		c.Fallback.APIKey = envValue("GEMINI_API_KEY")
	}
	c.Fallback.BaseURL = strings.TrimSpace(c.Fallback.BaseURL)
	if c.Fallback.BaseURL == "" {
		c.Fallback.BaseURL = defaultFallbackBaseURL
	}
	c.Fallback.Model = strings.TrimSpace(c.Fallback.Model)
	if c.Fallback.Model == "" {
		c.Fallback.Model = defaultFallbackModel
	}
	c.Fallback.Referer = strings.TrimSpace(c.Fallback.Referer)
	if c.Fallback.Referer == "" {
		c.Fallback.Referer = defaultFallbackReferer
	}
	c.Fallback.Title = strings.TrimSpace(c.Fallback.Title)
	if c.Fallback.Title == "" {
		c.Fallback.Title = defaultFallbackTitle
	}
	if c.Fallback.TimeoutSeconds == 0 {
		c.Fallback.TimeoutSeconds = defaultFallbackTimeoutSeconds
	}
}

func (c *Config) normalizeExport() {
	if c.Export.FPS == 0 {
		c.Export.FPS = defaultExportFPS
	}
	c.Export.ReelName = strings.TrimSpace(c.Export.ReelName)
	if c.Export.ReelName == "" {
		c.Export.ReelName = defaultExportReelName
	}
	c.Export.TrackLabel = strings.TrimSpace(c.Export.TrackLabel)
	if c.Export.TrackLabel == "" {
		c.Export.TrackLabel = defaultExportTrackLabel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = envValue("GHEARING_NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envValue(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
