package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/patterns"
	"github.com/dataveil/dataveil/internal/redact"
)

// Engine applies a merged, confidence-filtered pattern set to text.
//
// Every failure mode is fail-open: missing settings, bad custom patterns and
// audit write errors degrade to "nothing detected" rather than blocking the
// caller, and each is logged so the degradation is visible.
type Engine struct {
	registry *patterns.Registry
	settings SettingsProvider
	sink     Sink
	cfg      config.ScannerConfig
	logger   *zap.Logger
}

// NewEngine creates a scan engine. sink may be nil when auditing is disabled.
func NewEngine(registry *patterns.Registry, settings SettingsProvider, sink Sink, cfg config.ScannerConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		settings: settings,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
	}
}

// ScanText scans text for the identity using the configured minimum
// confidence and records a scan event when something was found.
func (e *Engine) ScanText(ctx context.Context, identity, text string) Result {
	return e.ScanTextWithConfidence(ctx, identity, text, e.cfg.MinConfidence)
}

// ScanTextWithConfidence scans text with an explicit minimum confidence
func (e *Engine) ScanTextWithConfidence(ctx context.Context, identity, text string, minConfidence float64) Result {
	result := e.scan(ctx, identity, text, minConfidence)
	if result.Sensitive {
		e.RecordEvent(ctx, identity, ActionScan, result.Matches, "")
	}
	return result
}

// scan runs pattern evaluation without emitting an audit event. The chunked
// file scanner uses it directly so a single file produces one aggregated
// event instead of one per chunk.
func (e *Engine) scan(ctx context.Context, identity, text string, minConfidence float64) Result {
	start := time.Now()

	settings := e.IdentitySettings(ctx, identity)
	if settings == nil || !settings.ScanEnabled {
		return Result{Elapsed: time.Since(start)}
	}

	// Merge built-ins with the identity's custom rules, then drop anything
	// below the confidence threshold before running a single matcher.
	set := e.registry.Merge(settings.ScanLevel, settings.CustomPatterns)
	set = patterns.FilterByConfidence(set, minConfidence)

	var matches MatchSet
	for _, p := range set {
		for _, literal := range p.Regexp.FindAllString(text, -1) {
			if redact.IsToken(literal) {
				continue
			}
			matches.Add(p.Name, literal)
		}
	}

	return Result{
		Sensitive: !matches.Empty(),
		Matches:   matches,
		Elapsed:   time.Since(start),
	}
}

// IdentitySettings resolves the identity's settings, treating any provider
// failure as "scanning disabled" (fail-open, logged).
func (e *Engine) IdentitySettings(ctx context.Context, identity string) *Settings {
	if e.settings == nil {
		return nil
	}
	settings, err := e.settings.Settings(ctx, identity)
	if err != nil {
		e.logger.Warn("Settings unavailable, scanning disabled for this call",
			zap.String("identity", identity),
			zap.Error(err),
		)
		return nil
	}
	return settings
}

// RecordEvent writes a detection event to the audit sink. Severity is
// derived from the distinct pattern-name count. Write failures are logged
// and ignored; the scan result is still returned to the caller.
func (e *Engine) RecordEvent(ctx context.Context, identity string, action Action, matches MatchSet, fileNames string) {
	if e.sink == nil {
		return
	}

	event := Event{
		Identity:  identity,
		Timestamp: time.Now(),
		Action:    action,
		Severity:  SeverityFor(&matches),
		Matches:   matches,
		FileNames: fileNames,
	}

	if err := e.sink.Record(ctx, event); err != nil {
		e.logger.Warn("Failed to record detection event",
			zap.String("identity", identity),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
