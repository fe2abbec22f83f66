package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/enexmd/internal/naming"
	"github.com/starford/enexmd/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Output modes.
const (
	OutputModeDisk   = "disk"
	OutputModeStdout = "stdout"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Output   OutputConfig      `yaml:"output"`
	Renderer render.Flags      `yaml:"renderer"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Inbox    InboxConfig       `yaml:"inbox"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := validateRenderer(c.Renderer); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Inbox.Validate(); err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// OutputConfig controls where converted notes go.
type OutputConfig struct {
	Root            string `yaml:"root"`
	Mode            string `yaml:"mode"`
	TimestampFormat string `yaml:"timestamp_format"`
	Frontmatter     bool   `yaml:"frontmatter"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if c.TimestampFormat == "" {
		c.TimestampFormat = naming.DefaultTimestampFormat
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(OutputModeDisk, OutputModeStdout)),
		validation.Field(&c.Root, validation.When(c.Mode == OutputModeDisk, validation.Required)),
	)
}

func validateRenderer(f render.Flags) error {
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.EmphasisMarker, validation.In("*", "_")),
		validation.Field(&f.WrapWidth, validation.Min(0), validation.Max(0)),
	); err != nil {
		return err
	}
	if !f.InlineLinks {
		return errors.New("reference-style links are not supported, inline_links must be true")
	}
	return nil
}

// CatalogConfig holds the SQLite catalog configuration.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// InboxConfig configures the watched drop directory. An empty path disables it.
type InboxConfig struct {
	Path     string        `yaml:"path"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Output: OutputConfig{
			Root:            "./output",
			Mode:            OutputModeDisk,
			TimestampFormat: naming.DefaultTimestampFormat,
		},
		Renderer: render.DefaultFlags(),
		Catalog: CatalogConfig{
			Enabled: false,
			Path:    "./enexmd.db",
		},
		Inbox: InboxConfig{
			Debounce: 500 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
