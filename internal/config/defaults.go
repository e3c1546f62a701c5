package config

const (
	defaultDataDir   = "~/.local/share/ghearing"
	defaultUploadDir = "~/.local/share/ghearing/uploads"
	defaultAudioDir  = "~/.local/share/ghearing/audios"
	defaultWorkDir   = "~/.local/share/ghearing/work"
	defaultExportDir = "~/.local/share/ghearing/exports"
	defaultLogDir    = "~/.local/share/ghearing/logs"
	defaultAPIBind   = "127.0.0.1:7490"

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultAudioBitrate  = "192k"
	defaultSampleRate    = 44100

	defaultDetectorCommand     = "python3"
	defaultDetectorScript      = "music-detector-broadcast.py"
	defaultDetectorSensitivity = "medium"

	defaultRecognitionBaseURL        = "https://api.audd.io/"
	defaultRecognitionTimeoutSeconds = 30
	defaultRecognitionDelayMillis    = 1000
	defaultRecognitionPlatforms      = "apple_music,spotify"

	defaultFallbackBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultFallbackModel          = "google/gemini-2.0-flash-001"
	defaultFallbackReferer        = "https://github.com/ghearing/ghearing"
	defaultFallbackTitle          = "ghearing music describer"
	defaultFallbackTimeoutSeconds = 60

	defaultExportFPS        = 25
	defaultExportBaseHours  = 1
	defaultExportReelName   = "TONE:_1000_HZ_@_-20.0_DB.1"
	defaultExportTrackLabel = "A4"

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	// DatabaseFileName is created inside paths.data_dir.
	DatabaseFileName = "ghearing.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			AudioDir:  defaultAudioDir,
			WorkDir:   defaultWorkDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Transcode: Transcode{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			DualStreamIndices: []int{1, 2},
			AudioBitrate:      defaultAudioBitrate,
			SampleRate:        defaultSampleRate,
		},
		Detector: Detector{
			Command:     defaultDetectorCommand,
			Script:      defaultDetectorScript,
			Sensitivity: defaultDetectorSensitivity,
		},
		Recognition: Recognition{
			BaseURL:         defaultRecognitionBaseURL,
			TimeoutSeconds:  defaultRecognitionTimeoutSeconds,
			RequestDelayMS:  defaultRecognitionDelayMillis,
			ReturnPlatforms: defaultRecognitionPlatforms,
		},
		Fallback: Fallback{
			Enabled:        true,
			BaseURL:        defaultFallbackBaseURL,
			Model:          defaultFallbackModel,
			Referer:        defaultFallbackReferer,
			Title:          defaultFallbackTitle,
			TimeoutSeconds: defaultFallbackTimeoutSeconds,
		},
		Pipeline: Pipeline{
			RetainClips:  false,
			RemoveSource: true,
		},
		Export: Export{
			FPS:        defaultExportFPS,
			BaseHours:  defaultExportBaseHours,
			ReelName:   defaultExportReelName,
			TrackLabel: defaultExportTrackLabel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
