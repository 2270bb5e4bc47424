package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
		RateLimit   int      `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql or postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Archive struct {
		Backend string `yaml:"backend"` // fs or minio
		Dir     string `yaml:"dir"`

		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"archive"`

	Auth struct {
		APIKey string            `yaml:"apiKey"`
		Tokens map[string]string `yaml:"tokens"` // token -> owner
	} `yaml:"auth"`

	Scanner struct {
		Workers            int `yaml:"workers"`
		QueueSize          int `yaml:"queueSize"`
		ToolTimeoutSeconds int `yaml:"toolTimeoutSeconds"`
		RecoverySeconds    int `yaml:"recoverySeconds"`
	} `yaml:"scanner"`

	Notify struct {
		SlackWebhookURL string `yaml:"slackWebhookUrl"`
	} `yaml:"notify"`

	AI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
}

// Load baca file config.yaml. ${VAR} di dalam file diganti dari environment,
// dengan .env dimuat lebih dulu kalau ada.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Archive.Backend == "" {
		c.Archive.Backend = "fs"
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = "./results"
	}
	if c.Scanner.Workers <= 0 {
		c.Scanner.Workers = 4
	}
	if c.Scanner.QueueSize <= 0 {
		c.Scanner.QueueSize = 64
	}
	if c.Scanner.ToolTimeoutSeconds <= 0 {
		c.Scanner.ToolTimeoutSeconds = 600
	}
	if c.Scanner.RecoverySeconds <= 0 {
		c.Scanner.RecoverySeconds = 30
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Notify.SlackWebhookURL == "" {
		c.Notify.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
