package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	BaseURL string `mapstructure:"BASE"`

	UploadDir      string   `mapstructure:"UPLOAD_DIR"`
	ProcessedDir   string   `mapstructure:"PROCESSED_DIR"`
	MaxUploadSize  int64    `mapstructure:"MAX_UPLOAD_SIZE"`
	AllowedFormats []string `mapstructure:"ALLOWED_FORMATS"`

	MaxConcurrency  int           `mapstructure:"MAX_CONCURRENCY"`
	JobTimeout      time.Duration `mapstructure:"JOB_TIMEOUT"`
	RetentionWindow time.Duration `mapstructure:"RETENTION_WINDOW"`
	CleanupSchedule string        `mapstructure:"CLEANUP_SCHEDULE"`

	FFmpegBin         string `mapstructure:"FFMPEG_BIN"`
	FFprobeBin        string `mapstructure:"FFPROBE_BIN"`
	WhisperBin        string `mapstructure:"WHISPER_BIN"`
	WhisperModel      string `mapstructure:"WHISPER_MODEL"`
	SubtitleExtraArgs string `mapstructure:"SUBTITLE_EXTRA_ARGS"`

	TranslateAPIURL  string        `mapstructure:"TRANSLATE_API_URL"`
	TranslateTimeout time.Duration `mapstructure:"TRANSLATE_TIMEOUT"`

	ThrottleCPU      float64 `mapstructure:"THROTTLE_CPU"`
	ThrottleFreeMem  int64   `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk int64   `mapstructure:"THROTTLE_FREEDISK"`

	AuthEnable bool   `mapstructure:"AUTH_ENABLE"`
	AuthKey    string `mapstructure:"AUTH_KEY"`

	DBPath   string `mapstructure:"DB_PATH"`
	DemoMode bool   `mapstructure:"DEMO_MODE"`
}

// stringToDurationHookFunc is a custom Viper hook for parsing Go's duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc is a custom Viper hook for parsing human-readable size strings.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		err := size.UnmarshalText([]byte(data.(string)))
		if err != nil {
			// Not a valid size string, let other parsers handle it.
			return data, nil
		}

		return int64(size.Bytes()), nil
	}
}

func Load() (*Config, error) {
	// Local overrides from a .env file, if present.
	_ = godotenv.Load()

	vp := viper.New()

	// Set default values as strings, the hooks will handle them.
	vp.SetDefault("PORT", "8080")
	vp.SetDefault("BASE", "")
	vp.SetDefault("UPLOAD_DIR", "static/uploads")
	vp.SetDefault("PROCESSED_DIR", "static/processed")
	vp.SetDefault("MAX_UPLOAD_SIZE", "500MB")
	vp.SetDefault("ALLOWED_FORMATS", []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"})
	vp.SetDefault("MAX_CONCURRENCY", 1)
	vp.SetDefault("JOB_TIMEOUT", "30m")
	vp.SetDefault("RETENTION_WINDOW", "1h")
	vp.SetDefault("CLEANUP_SCHEDULE", "@every 15m")
	vp.SetDefault("FFMPEG_BIN", "ffmpeg")
	vp.SetDefault("FFPROBE_BIN", "ffprobe")
	vp.SetDefault("WHISPER_BIN", "whisper")
	vp.SetDefault("WHISPER_MODEL", "base")
	vp.SetDefault("SUBTITLE_EXTRA_ARGS", "")
	vp.SetDefault("TRANSLATE_API_URL", "https://api.mymemory.translated.net/get")
	vp.SetDefault("TRANSLATE_TIMEOUT", "10s")
	vp.SetDefault("THROTTLE_CPU", 50.0)
	vp.SetDefault("THROTTLE_FREEMEM", "200MB")
	vp.SetDefault("THROTTLE_FREEDISK", "200MB")
	vp.SetDefault("AUTH_ENABLE", false)
	vp.SetDefault("AUTH_KEY", "123456")
	vp.SetDefault("DB_PATH", "")
	vp.SetDefault("DEMO_MODE", false)

	// Load from config file
	vp.SetConfigName("translate_video_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/translate-video/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Load from environment variables
	vp.SetEnvPrefix("TRANSLATE_VIDEO")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// Unmarshal the config, providing our custom composed hooks.
	// The order matters: the first hook that succeeds is used.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	// A zero or negative concurrency would leave the worker pool with no
	// slots and jobs queued forever.
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}

	return &cfg, nil
}

// FormatAllowed reports whether ext (without dot, any case) is an accepted
// upload container.
func (c *Config) FormatAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}
