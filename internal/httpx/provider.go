package httpx

import (
	"log/slog"
	"sync"
)

// Provider hands out a Client for the current configuration. When the
// configuration changes a new Client is built and swapped in; the old one
// only has its idle connections closed, so requests already using it finish.
type Provider struct {
	mu      sync.Mutex
	config  func() Config
	current *Client
	log     *slog.Logger
}

// NewProvider creates a provider reading its configuration from config on every call.
func NewProvider(config func() Config, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{config: config, log: log}
}

// Client returns a client matching the latest configuration.
func (p *Provider) Client() (*Client, error) {
	cfg := p.config()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Config() == cfg {
		return p.current, nil
	}

	p.log.Debug("Generating a new http client", "baseUrl", cfg.BaseURL, "timeout", cfg.Timeout)
	next, err := NewClient(cfg, p.log)
	if err != nil {
		return nil, err
	}
	if p.current != nil {
		p.current.CloseIdleConnections()
	}
	p.current = next
	return next, nil
}

// Close releases idle connections of the current client.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.CloseIdleConnections()
	}
}
