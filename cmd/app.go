package cmd

import (
	"fmt"

	"github.com/afslabs/afs-chat/internal"
)

// app bundles the wiring every command needs: resolved paths, config, the
// durable store, the HTTP client with its restored cookie jar, and the
// conversation controller on top.
type app struct {
	paths  internal.Paths
	cfg    internal.Config
	kv     *internal.KVStore
	client *internal.Client
	ctrl   *internal.Controller
}

func newApp() (*app, error) {
	paths, err := internal.ResolvePaths(dataDir)
	if err != nil {
		return nil, err
	}

	cfg, err := internal.LoadConfig(paths, serverURL)
	if err != nil {
		return nil, err
	}

	kv, err := internal.OpenKVStore(paths.StoreFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	client, err := internal.NewClient(cfg.ServerURL)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	if err := client.LoadCookies(kv); err != nil {
		internal.LogWarn("Failed to restore session cookies: %v", err)
	}

	ctrl := internal.NewController(client, internal.NewHistoryStore(kv))

	return &app{
		paths:  paths,
		cfg:    cfg,
		kv:     kv,
		client: client,
		ctrl:   ctrl,
	}, nil
}

// bootstrap runs the controller boot sequence: load local history, probe the
// cookie-backed identity, and fetch the conversation directory when
// authenticated.
func (a *app) bootstrap() {
	a.ctrl.Bootstrap()
}

func (a *app) saveCookies() {
	if err := a.client.SaveCookies(a.kv); err != nil {
		internal.LogWarn("Failed to persist session cookies: %v", err)
	}
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close local store: %v", err)
	}
}

// defaultMode resolves the configured query mode.
func (a *app) defaultMode() internal.QueryMode {
	mode, ok := internal.ParseQueryMode(a.cfg.DefaultMode)
	if !ok {
		return internal.ModeAsk
	}
	return mode
}
