// Package settings resolves per-identity scanning preferences. Deployments
// pick one of two sources: a static map in the config file, or a PostgreSQL
// store optionally fronted by a Redis read-through cache.
package settings

import (
	"context"
	"fmt"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/patterns"
	"github.com/dataveil/dataveil/internal/scan"
)

// ErrUnknownIdentity is returned when no settings exist for an identity
var ErrUnknownIdentity = fmt.Errorf("settings: unknown identity")

// StaticProvider serves settings from the configuration file. Useful for
// single-tenant deployments and tests; nothing is ever reloaded at runtime
// except through the config watcher restarting the server.
type StaticProvider struct {
	identities map[string]*scan.Settings
}

// NewStaticProvider builds a provider from the static identity map
func NewStaticProvider(static map[string]config.IdentitySettings) *StaticProvider {
	identities := make(map[string]*scan.Settings, len(static))
	for identity, entry := range static {
		identities[identity] = fromConfig(entry)
	}
	return &StaticProvider{identities: identities}
}

// Settings returns the identity's configured preferences
func (p *StaticProvider) Settings(_ context.Context, identity string) (*scan.Settings, error) {
	settings, ok := p.identities[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, identity)
	}
	copied := *settings
	return &copied, nil
}

// fromConfig converts a config entry into engine settings
func fromConfig(entry config.IdentitySettings) *scan.Settings {
	custom := make([]patterns.Definition, 0, len(entry.CustomPatterns))
	for _, cp := range entry.CustomPatterns {
		custom = append(custom, patterns.Definition{
			Name:       cp.Name,
			Expr:       cp.Pattern,
			Level:      patterns.ParseLevel(cp.Level),
			Confidence: cp.Confidence,
		})
	}
	return &scan.Settings{
		ScanEnabled:    entry.ScanEnabled,
		ScanLevel:      patterns.ParseLevel(entry.ScanLevel),
		AutoAnonymize:  entry.AutoAnonymize,
		CustomPatterns: custom,
	}
}
