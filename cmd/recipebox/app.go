package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/recipebox/internal/api"
	"github.com/hammamikhairi/recipebox/internal/config"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/engine"
	"github.com/hammamikhairi/recipebox/internal/logger"
	"github.com/hammamikhairi/recipebox/internal/state"
	"github.com/hammamikhairi/recipebox/internal/storage"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	apiURL     string
	tokenStore string
	tokenPath  string
	logFile    string
	rateLimit  float64
	verbose    bool
	quiet      bool
}

// app holds the wired dependencies for one invocation.
type app struct {
	opts options

	cfg       *config.Config
	log       *logger.Logger
	tokens    domain.TokenStore
	engine    *engine.Engine
	transport *http.Transport
	closers   []io.Closer
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", config.DefaultPath, "path to the YAML config file")
	f.StringVar(&o.apiURL, "api-url", "", "service root, e.g. http://localhost:8000/api")
	f.StringVar(&o.tokenStore, "token-store", "", "token storage backend (memory, file, sqlite)")
	f.StringVar(&o.tokenPath, "token-path", "", "token storage file")
	f.StringVar(&o.logFile, "log-file", "", `file to write logs to (use "stderr" to log to console)`)
	f.Float64Var(&o.rateLimit, "rate-limit", 0, "max requests per second, 0 for unlimited")
	f.BoolVar(&o.verbose, "verbose", false, "enable verbose/debug logging")
	f.BoolVar(&o.quiet, "quiet", false, "disable all logging")
}

// loadConfig reads the config file and environment, then applies the flags
// that were set explicitly.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = a.opts.apiURL
	}
	if flags.Changed("token-store") {
		cfg.Storage.Backend = a.opts.tokenStore
	}
	if flags.Changed("token-path") {
		cfg.Storage.Path = a.opts.tokenPath
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.opts.logFile
	}
	if flags.Changed("rate-limit") {
		cfg.API.RateLimit = a.opts.rateLimit
	}
	switch {
	case a.opts.quiet:
		cfg.Log.Level = "off"
	case a.opts.verbose:
		cfg.Log.Level = "verbose"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// setup builds the logger, token storage, API client, store and engine.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	level, err := logger.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}

	// Logs go to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if level != logger.LevelOff && a.cfg.Log.File != "" && a.cfg.Log.File != "stderr" {
		if dir := filepath.Dir(a.cfg.Log.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
		}
		f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not open log file %s: %v (falling back to stderr)\n", a.cfg.Log.File, err)
		} else {
			logOut = f
			a.closers = append(a.closers, f)
		}
	}

	// Third-party packages that use the standard log package share the output.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	a.log = logger.New(level, logOut)

	tokens, closer, err := storage.Open(a.cfg.Storage.Backend, a.cfg.Storage.Path, a.log.With("component", "storage"))
	if err != nil {
		return err
	}
	a.tokens = tokens
	a.closers = append(a.closers, closer)

	a.transport = http.DefaultTransport.(*http.Transport).Clone()
	client := api.NewClient(a.cfg.API.BaseURL, tokens, a.log.With("component", "api"),
		api.WithHTTPClient(&http.Client{Transport: a.transport}),
		api.WithHTTPTimeout(a.cfg.HTTPTimeout()),
		api.WithRateLimit(a.cfg.API.RateLimit, a.cfg.API.Burst),
		api.WithUserAgent("recipebox/"+version),
	)

	store := state.NewStore(a.log)
	a.engine = engine.New(client, tokens, store, a.log.With("component", "engine"),
		engine.WithPageSize(a.cfg.Browse.PageSize),
		engine.WithRecipesLimit(a.cfg.Browse.RecipesLimit),
	)

	a.log.Debug("wired: api=%s tokens=%s(%s)", client.BaseURL(), a.cfg.Storage.Backend, a.cfg.Storage.Path)
	return nil
}

// bootstrap restores the stored session before a command runs.
func (a *app) bootstrap(ctx context.Context) domain.SessionStatus {
	status, err := a.engine.Bootstrap(ctx)
	if err != nil {
		a.log.Warn("bootstrap: %v", err)
	}
	a.log.Debug("session: %s", status)
	return status
}

// close releases everything setup opened, newest first.
func (a *app) close() error {
	if a.transport != nil {
		a.transport.CloseIdleConnections()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
