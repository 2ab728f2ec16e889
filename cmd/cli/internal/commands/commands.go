package commands

import (
	"fmt"
	"net/http"

	"github.com/rodortega/calcli/internal/api"
	"github.com/rodortega/calcli/internal/config"
	"github.com/rodortega/calcli/internal/credentials"
	"github.com/rodortega/calcli/internal/gateway"
	"github.com/rodortega/calcli/internal/session"
)

type Globals struct {
	Debug      bool
	ConfigPath string
	Version    string
}

// App is the wired client stack shared by all commands.
type App struct {
	Config     config.Config
	State      *session.State
	Controller *session.Controller

	// API is the default client. CachedAPI routes through a caching
	// HTTP client for endpoints that serve Cache-Control headers.
	API       *api.Client
	CachedAPI *api.Client
}

// buildApp assembles the session core the same way for every command:
// load config, restore any persisted session, route everything through
// the gateway, and bind the controller as the gateway's 401 reaction.
func buildApp(globals *Globals) (*App, error) {
	path := globals.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	store, err := credentials.NewFileStore(cfg.CredentialsDir)
	if err != nil {
		return nil, err
	}

	rec, err := store.Load()
	if err != nil {
		return nil, err
	}

	state := session.NewState(rec)

	gwConfig := gateway.Config{
		BaseURL:        cfg.BaseURL,
		AcceptLanguage: cfg.AcceptLanguage,
		UserAgent:      "calcli/" + globals.Version,
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: &gateway.RetryTransport{},
		},
	}

	gw, err := gateway.New(gwConfig, state)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(gw)
	ctrl := session.NewController(state, store, client)
	gw.BindInvalidator(ctrl)

	cachedConfig := gwConfig
	cachedConfig.HTTPClient = gateway.NewCachingHTTPClient(cfg.CacheDir, cfg.Timeout())

	cachedGW, err := gateway.New(cachedConfig, state)
	if err != nil {
		return nil, err
	}
	cachedGW.BindInvalidator(ctrl)

	return &App{
		Config:     cfg,
		State:      state,
		Controller: ctrl,
		API:        client,
		CachedAPI:  api.NewClient(cachedGW),
	}, nil
}

// maskToken shortens a credential for display.
func maskToken(token string) string {
	if token == "" {
		return "-"
	}
	if len(token) <= 8 {
		return "****"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
