package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
)

// Config holds the environment overrides. Empty values leave the client config file
// untouched.
type Config struct {
	Credentials credentialsConfig
	Service     svcConfig
	Storage     storageConfig
}

type credentialsConfig struct {
	ClientID     string `envconfig:"AIO_CLIENT_ID" default:""`
	ClientSecret string `envconfig:"AIO_CLIENT_SECRET" default:""`
}

type svcConfig struct {
	ServerURL string `envconfig:"AIO_SERVER_URL" default:""`
	AuthURL   string `envconfig:"AIO_AUTH_URL" default:""`
	LogLevel  string `envconfig:"AIO_LOG_LEVEL" default:""`
	OutputDir string `envconfig:"AIO_OUTPUT_DIR" default:""`
}

type storageConfig struct {
	Endpoint  string `envconfig:"AIO_STORAGE_ENDPOINT" default:""`
	Bucket    string `envconfig:"AIO_STORAGE_BUCKET" default:""`
	AccessKey string `envconfig:"AIO_STORAGE_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"AIO_STORAGE_SECRET_KEY" default:""`
}

func New() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply copies every non-empty override into cfg.
func (c *Config) Apply(cfg *client.Config) {
	setIfNotEmpty(&cfg.Credentials.ClientID, c.Credentials.ClientID)
	setIfNotEmpty(&cfg.Credentials.ClientSecret, c.Credentials.ClientSecret)
	setIfNotEmpty(&cfg.Service.Server, c.Service.ServerURL)
	setIfNotEmpty(&cfg.Service.AuthServer, c.Service.AuthURL)
	setIfNotEmpty(&cfg.OutputDir, c.Service.OutputDir)

	if c.Storage.Endpoint == "" {
		return
	}
	if cfg.Storage == nil {
		cfg.Storage = &client.Storage{}
	}
	setIfNotEmpty(&cfg.Storage.Endpoint, c.Storage.Endpoint)
	setIfNotEmpty(&cfg.Storage.Bucket, c.Storage.Bucket)
	setIfNotEmpty(&cfg.Storage.AccessKey, c.Storage.AccessKey)
	setIfNotEmpty(&cfg.Storage.SecretKey, c.Storage.SecretKey)
}

func (c *Config) LogLevel() string {
	return c.Service.LogLevel
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
