package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	SQLite     SQLiteConfig
	Dataset    DatasetConfig
	Evaluation EvaluationConfig
	Export     ExportConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type DatasetConfig struct {
	Default          string
	MaxArticleLength int
	RowsEndpoint     string
	FetchTimeoutSec  int
	PageSize         int
	MaxPages         int
	CacheTTLMin      int
}

type EvaluationConfig struct {
	DefaultMaxArticles int
	MaxAllowedArticles int
	ResponseTimeoutSec int
	SweepIntervalSec   int
	DispatchDelayMS    int
	UseStemmer         bool
}

type ExportConfig struct {
	ResultsDir string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/genai-eval")

	viper.SetEnvPrefix("GENAI_EVAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 4194304)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sqlite.path", "./data/evaluations.db")

	viper.SetDefault("dataset.default", "cnn_dailymail")
	viper.SetDefault("dataset.maxArticleLength", 4000)
	viper.SetDefault("dataset.rowsEndpoint", "https://datasets-server.huggingface.co/rows")
	viper.SetDefault("dataset.fetchTimeoutSec", 30)
	viper.SetDefault("dataset.pageSize", 100)
	viper.SetDefault("dataset.maxPages", 10)
	viper.SetDefault("dataset.cacheTTLMin", 60)

	viper.SetDefault("evaluation.defaultMaxArticles", 20)
	viper.SetDefault("evaluation.maxAllowedArticles", 50)
	viper.SetDefault("evaluation.responseTimeoutSec", 30)
	viper.SetDefault("evaluation.sweepIntervalSec", 5)
	viper.SetDefault("evaluation.dispatchDelayMS", 0)
	viper.SetDefault("evaluation.useStemmer", true)

	viper.SetDefault("export.resultsDir", "./results")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
