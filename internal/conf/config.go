package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Log      LogConfig
	OpenAI   OpenAIConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Quota    QuotaConfig
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	ChatModel          string        `mapstructure:"chat_model"`
	SpeechModel        string        `mapstructure:"speech_model"`
	SpeechVoice        string        `mapstructure:"speech_voice"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Bucket        string        `mapstructure:"bucket"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type QuotaConfig struct {
	Window time.Duration `mapstructure:"window"`
	Limit  int           `mapstructure:"limit"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.SpeechModel == "" {
		c.OpenAI.SpeechModel = "tts-1"
	}
	if c.OpenAI.SpeechVoice == "" {
		c.OpenAI.SpeechVoice = "alloy"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "marketplace"
	}
	if c.Storage.PresignExpiry <= 0 {
		c.Storage.PresignExpiry = 10 * time.Minute
	}
	if c.Storage.MaxUploadSize <= 0 {
		c.Storage.MaxUploadSize = 100 << 20
	}
	if c.Quota.Window <= 0 {
		c.Quota.Window = 24 * time.Hour
	}
	if c.Quota.Limit <= 0 {
		c.Quota.Limit = 20
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
