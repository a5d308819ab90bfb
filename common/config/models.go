package config

type GeneralConfig struct {
	BindAddress     string `yaml:"bindAddress"`
	Port            int    `yaml:"port"`
	LogDirectory    string `yaml:"logDirectory"`
	LogColors       bool   `yaml:"logColors"`
	JsonLogs        bool   `yaml:"jsonLogs"`
	LogLevel        string `yaml:"logLevel"`
	TrustAnyForward bool   `yaml:"trustAnyForwardedAddress"`
}

type ScratchConfig struct {
	UploadsPath string `yaml:"uploadsPath"`
	OutputsPath string `yaml:"outputsPath"`
}

type ConversionConfig struct {
	NumWorkers         int   `yaml:"numWorkers"`
	ItemTimeoutSeconds int   `yaml:"itemTimeoutSeconds"`
	MaxFileSizeBytes   int64 `yaml:"maxFileSizeBytes"`
	MaxFilesPerBatch   int   `yaml:"maxFilesPerBatch"`
	FormMemoryBytes    int64 `yaml:"formMemoryBytes"`
}

type PlaceholderConfig struct {
	Width   int     `yaml:"width"`
	Quality int     `yaml:"quality"`
	Blur    float64 `yaml:"blur"`
}

type BlurhashConfig struct {
	Enabled     bool `yaml:"enabled"`
	XComponents int  `yaml:"xComponents"`
	YComponents int  `yaml:"yComponents"`
}

type ImagesConfig struct {
	MaxDimension int               `yaml:"maxDimension"`
	Placeholder  PlaceholderConfig `yaml:"placeholder"`
	Blurhash     BlurhashConfig    `yaml:"blurhash"`
}

type AudioConfig struct {
	FfmpegPath string `yaml:"ffmpegPath"`
}

type ArchivesConfig struct {
	FileName string `yaml:"fileName"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Enabled           bool    `yaml:"enabled"`
	BurstCount        int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

type MainRepoConfig struct {
	General    GeneralConfig    `yaml:"repo"`
	Scratch    ScratchConfig    `yaml:"scratch"`
	Conversion ConversionConfig `yaml:"conversion"`
	Images     ImagesConfig     `yaml:"images"`
	Audio      AudioConfig      `yaml:"audio"`
	Archives   ArchivesConfig   `yaml:"archives"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Sentry     SentryConfig     `yaml:"sentry"`
}
