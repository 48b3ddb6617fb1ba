package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/config"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/log"
	"go.uber.org/zap"
)

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string
	LogLevel       string
	LogFile        string

	env *config.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultClientConfigPath(),
		LogLevel:       logrus.InfoLevel.String(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the service, overrides the config file")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&o.LogFile, "log-file", o.LogFile, "Also write json logs to this rotated file")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	env, err := config.New()
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	o.env = env

	if env.LogLevel() != "" && (cmd == nil || !cmd.Flags().Changed("log-level")) {
		o.LogLevel = env.LogLevel()
	}

	lvl, err := zap.ParseAtomicLevel(o.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.LogLevel, err)
	}
	logger := log.InitLogWithFile(lvl, log.FileOptions{Path: o.LogFile, MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28})
	zap.ReplaceGlobals(logger)
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Config loads the client config file and applies the environment and flag overrides.
func (o *GlobalOptions) Config() (*client.Config, error) {
	cfg, err := client.LoadConfig(o.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	if o.env != nil {
		o.env.Apply(cfg)
	}
	if o.ServerUrl != "" {
		cfg.Service.Server = o.ServerUrl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Token exchanges the configured credentials for an Authorization header value.
func (o *GlobalOptions) Token(ctx context.Context, cfg *client.Config) (string, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return "", fmt.Errorf("credentials: %w", err)
	}
	httpClient, err := client.NewHTTPClientFromConfig(cfg)
	if err != nil {
		return "", err
	}
	return client.NewTokenProvider(cfg.Service.AuthServer, httpClient).
		GetToken(ctx, cfg.Credentials.ClientID, cfg.Credentials.ClientSecret)
}

// Client returns a service client that sends the token on every request.
func (o *GlobalOptions) Client(ctx context.Context, cfg *client.Config) (*client.Client, error) {
	token, err := o.Token(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.NewFromConfig(cfg, client.WithAuthorization(token))
}
