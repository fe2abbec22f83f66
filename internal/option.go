package internal

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	clock  func() time.Time
	stdout io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClock sets the time source used for run folder names.
func WithClock(clock func() time.Time) Option {
	return func(a *application) {
		a.clock = clock
	}
}

// WithStdout sets the stream converted notes and search results are printed to.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{
		clock:  time.Now,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}
