package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"assistui/config"
	"assistui/provider"
	"assistui/session"
	"assistui/storage"
	"assistui/telemetry"
	"assistui/ui"
)

const (
	Version = "v0.1.0"
	License = "Apache-2.0"
)

// startupCheckTimeout bounds the key check done before the UI opens.
const startupCheckTimeout = 20 * time.Second

// credentialSaver persists keys entered in the UI. A key taken from the
// environment is never written to disk.
type credentialSaver struct {
	store  *config.CredentialStore
	envKey string
}

func (s credentialSaver) SaveAPIKey(key string) error {
	if s.envKey != "" && key == s.envKey {
		return nil
	}
	return s.store.SaveAPIKey(key)
}

func showFatal(title, message string) {
	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	}
	os.Exit(1)
}

// loadCredentials loads the credential store, asking for the SSH key
// passphrase until it works or the user gives up.
func loadCredentials(cfg *config.Config) (*config.CredentialStore, bool) {
	creds := config.NewCredentialStore(cfg.CredentialStorage, cfg.SSHKeyPath, cfg.DataDir())
	err := creds.Load()
	errMsg := ""
	for errors.Is(err, config.ErrPassphraseRequired) {
		p := tea.NewProgram(ui.NewPassphraseModal(cfg.SSHKeyPath, errMsg), tea.WithAltScreen())
		final, runErr := p.Run()
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
			return nil, false
		}
		pm, ok := final.(ui.PassphraseModal)
		if !ok || pm.Cancelled() {
			return nil, false
		}
		creds.SetPassphrase(pm.Passphrase())
		err = creds.Load()
		errMsg = "Incorrect passphrase, try again"
	}
	if err != nil {
		showFatal("Credential Error", fmt.Sprintf("Failed to load credentials: %v", err))
	}
	return creds, true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		showFatal("Configuration Error", fmt.Sprintf("Failed to load config: %v", err))
	}

	config.InitDebugLog(cfg.DataDir())
	defer config.CloseDebugLog()

	if ok, conflict := cfg.Keybindings.Validate(); !ok {
		config.Logf("[Main] Keybinding conflict: %s", conflict)
	}

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, cfg.DataDir(), cfg.TelemetryEnabled)
	if err != nil {
		config.Logf("[Main] Telemetry disabled: %v", err)
		shutdown = func() {}
	}
	defer shutdown()

	store, err := storage.NewStore(cfg.DataDir())
	if err != nil {
		showFatal("Storage Error", fmt.Sprintf("Failed to open database: %v", err))
	}
	defer store.Close()

	creds, ok := loadCredentials(cfg)
	if !ok {
		return
	}

	relay := ui.NewEventRelay()
	wrapper := session.New(store,
		provider.Factory(provider.Options{
			BaseURL:        cfg.BaseURL,
			RequestTimeout: cfg.RequestTimeout,
		}),
		session.Options{
			ListOrder:           cfg.ListOrder,
			ListLimit:           cfg.ListLimit,
			DefaultModel:        cfg.DefaultModel,
			DefaultInstructions: cfg.DefaultInstructions,
			PersistInvalidKey:   cfg.PersistInvalidKey,
			Credentials:         credentialSaver{store: creds, envKey: cfg.EnvAPIKey},
			Listener:            relay,
		},
	)

	key := cfg.EnvAPIKey
	if key == "" {
		key = creds.APIKey()
	}
	if key != "" {
		checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
		available, err := wrapper.ConfigureCredentials(checkCtx, key)
		cancel()
		if err != nil {
			config.Logf("[Main] Failed to configure credentials: %v", err)
		}
		config.Logf("[Main] OpenAI client available: %v", available)
	}

	p := tea.NewProgram(
		ui.NewAppView(cfg, wrapper, Version, License),
		tea.WithAltScreen(),
	)
	relay.Attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running assistui: %v\n", err)
		os.Exit(1)
	}
}
