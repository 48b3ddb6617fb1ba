package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/util"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/log"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/requestid"
	"go.uber.org/zap"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/yaml"
)

const (
	// TestRootDirEnvKey is the environment variable key used to set the file system root when testing.
	TestRootDirEnvKey = "AIO_TEST_ROOT_DIR"

	DefaultServer     = "https://developer.api.autodesk.com/autocad.io/us-east/v2/"
	DefaultAuthServer = "https://developer.api.autodesk.com/authentication/v1/authenticate"

	// DefaultPollInterval is the delay before each work item status check.
	DefaultPollInterval = 2 * time.Second
)

// Config holds the information needed to connect to the AutoCAD I/O service.
type Config struct {
	Service     Service     `json:"service" validate:"required"`
	Credentials Credentials `json:"credentials"`
	Poll        Poll        `json:"poll,omitempty"`
	// Storage is an optional S3-compatible bucket used for managed inputs and outputs.
	Storage *Storage `json:"storage,omitempty"`
	// OutputDir is where results are downloaded. Defaults to the user's documents folder.
	OutputDir string `json:"output-dir,omitempty"`

	// baseDir is used to resolve relative paths
	// If baseDir is empty, the current working directory is used.
	baseDir string `json:"-"`
	// TestRootDir is the root directory for test files.
	testRootDir string `json:"-"`
}

// Service contains information how to connect to and authenticate against the service.
type Service struct {
	// Server is the URL of the service (the part before WorkItems, Activities, ...).
	Server string `json:"server" validate:"required,url"`
	// AuthServer is the OAuth token endpoint.
	AuthServer string `json:"auth-server" validate:"required,url"`
}

type Credentials struct {
	ClientID     string `json:"client-id,omitempty"`
	ClientSecret string `json:"client-secret,omitempty"`
}

type Poll struct {
	Interval util.Duration `json:"interval,omitempty"`
	// MaxAttempts bounds the number of status checks. Zero means no bound.
	MaxAttempts int `json:"max-attempts,omitempty" validate:"gte=0"`
}

type Storage struct {
	Endpoint  string `json:"endpoint" validate:"required"`
	Bucket    string `json:"bucket" validate:"required"`
	AccessKey string `json:"access-key" validate:"required"`
	SecretKey string `json:"secret-key" validate:"required"`
	UseSSL    bool   `json:"use-ssl,omitempty"`
}

func (c *Config) Equal(c2 *Config) bool {
	if c == c2 {
		return true
	}
	if c == nil || c2 == nil {
		return false
	}
	return c.Service.Equal(&c2.Service) && c.Credentials == c2.Credentials
}

func (s *Service) Equal(s2 *Service) bool {
	if s == s2 {
		return true
	}
	if s == nil || s2 == nil {
		return false
	}
	return s.Server == s2.Server && s.AuthServer == s2.AuthServer
}

func (c *Config) SetBaseDir(baseDir string) {
	c.baseDir = baseDir
}

// ResolvePath makes p absolute relative to the config file location.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Join(c.testRootDir, p)
	}
	return filepath.Join(c.testRootDir, c.baseDir, p)
}

// ResultsDir returns the directory results are downloaded to.
func (c *Config) ResultsDir() string {
	if c.OutputDir != "" {
		return c.ResolvePath(c.OutputDir)
	}
	return filepath.Join(c.testRootDir, homedir.HomeDir(), "Documents")
}

func (c *Config) PollInterval() time.Duration {
	if c.Poll.Interval.Duration <= 0 {
		return DefaultPollInterval
	}
	return c.Poll.Interval.Duration
}

func NewDefault() *Config {
	c := &Config{
		Service: Service{
			Server:     DefaultServer,
			AuthServer: DefaultAuthServer,
		},
		Poll: Poll{Interval: util.Duration{Duration: DefaultPollInterval}},
	}

	if value := os.Getenv(TestRootDirEnvKey); value != "" {
		c.testRootDir = filepath.Clean(value)
	}

	return c
}

// NewFromConfig returns a new service client from the given config. Extra options, such as
// the Authorization header, are applied after the request id editor.
func NewFromConfig(config *Config, opts ...ClientOption) (*Client, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("NewFromConfig: creating HTTP client %w", err)
	}
	ref := WithRequestEditorFn(func(ctx context.Context, req *http.Request) error {
		req.Header.Set(middleware.RequestIDHeader, requestid.FromContextOrNew(ctx))
		return nil
	})
	opts = append([]ClientOption{WithHTTPClient(httpClient), ref}, opts...)
	return NewClient(config.Service.Server, opts...)
}

// NewHTTPClientFromConfig returns a new HTTP Client from the given config.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	httpClient := &http.Client{
		Transport: log.NewTransport(transport, zap.L(), "http"),
	}
	return httpClient, nil
}

// DefaultClientConfigPath returns the default path to the client config file.
func DefaultClientConfigPath() string {
	return filepath.Join(homedir.HomeDir(), ".aio", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	config.SetBaseDir(filepath.Dir(filename))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads filename if it exists and falls back to the defaults otherwise.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfigFile(filename)
}

// WriteConfig writes a client config file using the given parameters.
func WriteConfig(filename string, server string, credentials Credentials) error {
	config := NewDefault()
	config.Service.Server = server
	config.Credentials = credentials

	return config.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	validationErrors := make([]error, 0)
	validationErrors = append(validationErrors, validateStruct(c)...)
	validationErrors = append(validationErrors, validateService(c.Service)...)
	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %v", utilerrors.NewAggregate(validationErrors).Error())
	}
	return nil
}

// ValidateCredentials is checked only by the commands that need a token.
func (c *Config) ValidateCredentials() error {
	validationErrors := make([]error, 0)
	if c.Credentials.ClientID == "" {
		validationErrors = append(validationErrors, fmt.Errorf("no client-id found"))
	}
	if c.Credentials.ClientSecret == "" {
		validationErrors = append(validationErrors, fmt.Errorf("no client-secret found"))
	}
	return utilerrors.NewAggregate(validationErrors)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateStruct(c *Config) []error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []error{err}
	}
	validationErrors := make([]error, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, fmt.Errorf("%s: failed on %q", fe.Namespace(), fe.Tag()))
	}
	return validationErrors
}

func validateService(service Service) []error {
	validationErrors := make([]error, 0)
	fields := []struct {
		name  string
		value string
	}{
		{"server", service.Server},
		{"auth-server", service.AuthServer},
	}
	for _, f := range fields {
		name, value := f.name, f.value
		if len(value) == 0 {
			validationErrors = append(validationErrors, fmt.Errorf("no %s found", name))
			continue
		}
		u, err := url.Parse(value)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("invalid %s format %q: %w", name, value, err))
			continue
		}
		if len(u.Hostname()) == 0 {
			validationErrors = append(validationErrors, fmt.Errorf("invalid %s format %q: no hostname", name, value))
		}
	}
	return validationErrors
}
