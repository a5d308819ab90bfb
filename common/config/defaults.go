package config

func NewDefaultMainConfig() MainRepoConfig {
	return MainRepoConfig{
		General: GeneralConfig{
			BindAddress:     "127.0.0.1",
			Port:            8000,
			LogDirectory:    "logs",
			LogColors:       false,
			JsonLogs:        false,
			LogLevel:        "info",
			TrustAnyForward: false,
		},
		Scratch: ScratchConfig{
			UploadsPath: "uploads",
			OutputsPath: "outputs",
		},
		Conversion: ConversionConfig{
			NumWorkers:         4,
			ItemTimeoutSeconds: 120,
			MaxFileSizeBytes:   52428800, // 50mb
			MaxFilesPerBatch:   50,
			FormMemoryBytes:    33554432, // 32mb
		},
		Images: ImagesConfig{
			MaxDimension: 8192,
			Placeholder: PlaceholderConfig{
				Width:   20,
				Quality: 20,
				Blur:    1.5,
			},
			Blurhash: BlurhashConfig{
				Enabled:     true,
				XComponents: 4,
				YComponents: 3,
			},
		},
		Audio: AudioConfig{
			FfmpegPath: "ffmpeg",
		},
		Archives: ArchivesConfig{
			FileName: "converted-files.zip",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			BurstCount:        10,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "not supplied",
			Environment: "",
			Debug:       false,
		},
	}
}
