package main

import (
	"fmt"
	"time"

	"wpexport/pkg/auth"
	"wpexport/pkg/config"
	"wpexport/pkg/export"
	"wpexport/pkg/graph"
	"wpexport/pkg/logger"
	"wpexport/pkg/ratelimit"
	"wpexport/pkg/storage"

	"wpexport/internal/downloader"
)

// loadConfig builds the effective configuration from all sources and
// resolves the access token through the credential manager when the
// config itself has none.
func loadConfig(extraFlags map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{}
	if accessToken != "" {
		flags["token"] = accessToken
	}
	if apiVersion != "" {
		flags["api-version"] = apiVersion
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	for k, v := range extraFlags {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}

	if cfg.API.AccessToken == "" {
		account, err := resolveAccount()
		if err == nil && account != nil {
			cfg.API.AccessToken = account.AccessToken
			if cfg.API.TenantID == "" {
				cfg.API.TenantID = account.TenantID
			}
			if account.APIVersion != "" && apiVersion == "" {
				cfg.API.Version = account.APIVersion
			}
			logger.GetLogger().WithField("account", account.Name).Info("using stored credentials")
		}
	}

	return cfg, nil
}

// resolveAccount fetches stored credentials, honoring --account
func resolveAccount() (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	if accountName != "" {
		return manager.Retrieve(accountName)
	}
	return manager.RetrieveDefault()
}

// requireToken fails with a helpful message when no token is available
func requireToken(cfg *config.Config) error {
	if cfg.API.AccessToken != "" {
		return nil
	}
	return fmt.Errorf("no access token found: pass --token, set WORKPLACE_ACCESS_TOKEN, or run 'wpexport auth login'")
}

// newService wires a Graph client and enumeration service from config
func newService(cfg *config.Config) *export.Service {
	log := logger.GetLogger()
	client := graph.NewClient(cfg.API.AccessToken, cfg.API.Version, graph.Options{
		Timeout:       cfg.API.Timeout,
		StreamTimeout: cfg.Download.DownloadTimeout,
		Limiter:       ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
	}, log)
	return export.NewService(client, log)
}

// newExporter wires the full orchestration stack from config
func newExporter(cfg *config.Config, service *export.Service, reporter export.Reporter) (*export.Exporter, error) {
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, err
	}

	client := graph.NewClient(cfg.API.AccessToken, cfg.API.Version, graph.Options{
		Timeout:       cfg.API.Timeout,
		StreamTimeout: cfg.Download.DownloadTimeout,
	}, log)
	dl := downloader.New(client, cfg.Download.MaxRetries, cfg.Download.RetryBackoff, log)

	return export.NewExporter(service, dl, store, reporter, cfg.Download.ConcurrentDownloads, log), nil
}
