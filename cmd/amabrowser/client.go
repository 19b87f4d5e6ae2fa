package main

import (
	"github.com/kalambet/amabrowser/internal/config"
	"github.com/kalambet/amabrowser/internal/navigator"
	"github.com/kalambet/amabrowser/internal/render"
)

// newAPIClient builds the document API client from config. Tests replace it.
var newAPIClient = func() (navigator.API, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return apiClientFor(cfg), nil
}

func apiClientFor(cfg config.Config) *navigator.Client {
	opts := []navigator.ClientOption{navigator.WithTimeout(cfg.Client.Timeout)}
	if cfg.Client.Token != "" {
		opts = append(opts, navigator.WithToken(cfg.Client.Token))
	}
	return navigator.NewClient(cfg.Client.BaseURL, opts...)
}

// newRenderer returns a renderer showing times in the configured time zone.
var newRenderer = func() *render.Renderer {
	cfg, err := loadConfig()
	if err != nil {
		return render.New()
	}
	return render.New(render.WithLocation(cfg.Location()))
}
