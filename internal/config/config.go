package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Sample    SampleConfig    `yaml:"sample" mapstructure:"sample"`
	Weights   WeightsConfig   `yaml:"weights" mapstructure:"weights"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SampleConfig configures the point sampler.
type SampleConfig struct {
	Size int   `yaml:"size" mapstructure:"size"`
	Seed int64 `yaml:"seed" mapstructure:"seed"`
}

// WeightsConfig configures the spatial weights builder.
type WeightsConfig struct {
	Policy string  `yaml:"policy" mapstructure:"policy"`
	K      int     `yaml:"k" mapstructure:"k"`
	BandKM float64 `yaml:"band_km" mapstructure:"band_km"`
	Scheme string  `yaml:"scheme" mapstructure:"scheme"`
}

// NominatimConfig configures the geocoding client.
type NominatimConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("UHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "uhi.db")
	v.SetDefault("sample.size", 1500)
	v.SetDefault("sample.seed", 42)
	v.SetDefault("weights.policy", "knn")
	v.SetDefault("weights.k", 8)
	v.SetDefault("weights.band_km", 1.5)
	v.SetDefault("weights.scheme", "binary")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "uhi-cli/1.0")
	v.SetDefault("nominatim.rps", 1.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks configuration invariants shared by all commands.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Sample.Size <= 0 {
		problems = append(problems, "sample.size must be > 0")
	}
	switch c.Weights.Policy {
	case "knn", "band":
	default:
		problems = append(problems, "weights.policy must be knn or band")
	}
	switch c.Weights.Scheme {
	case "binary", "idw":
	default:
		problems = append(problems, "weights.scheme must be binary or idw")
	}
	if c.Weights.Policy == "knn" && c.Weights.K <= 0 {
		problems = append(problems, "weights.k must be > 0")
	}
	if c.Weights.Policy == "band" && c.Weights.BandKM <= 0 {
		problems = append(problems, "weights.band_km must be > 0")
	}
	if c.Nominatim.RPS <= 0 {
		problems = append(problems, "nominatim.rps must be > 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
