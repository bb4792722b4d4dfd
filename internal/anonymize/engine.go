// Package anonymize rewrites detected sensitive literals into safe
// replacement tokens while keeping the surrounding text intact.
package anonymize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/redact"
	"github.com/dataveil/dataveil/internal/scan"
)

// Result carries the anonymized text together with what was detected.
// Text equals the input when nothing matched or the identity has
// auto-anonymization turned off.
type Result struct {
	Text      string        `json:"text"`
	Sensitive bool          `json:"sensitive_found"`
	Matches   scan.MatchSet `json:"matches"`
	Replaced  int           `json:"replaced"`
}

// Engine wraps a scan engine and replaces what it finds
type Engine struct {
	scanner *scan.Engine
	logger  *zap.Logger
}

// NewEngine creates an anonymization engine on top of the given scanner
func NewEngine(scanner *scan.Engine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{scanner: scanner, logger: logger}
}

// Anonymize scans text for the identity and replaces every occurrence of
// each matched literal with its category token. Identities with
// auto-anonymization disabled still get the detection report but the text
// comes back unchanged.
func (e *Engine) Anonymize(ctx context.Context, identity, text string) Result {
	scanned := e.scanner.ScanText(ctx, identity, text)
	result := Result{
		Text:      text,
		Sensitive: scanned.Sensitive,
		Matches:   scanned.Matches,
	}
	if !scanned.Sensitive {
		return result
	}

	settings := e.scanner.IdentitySettings(ctx, identity)
	if settings == nil || !settings.AutoAnonymize {
		return result
	}

	// Literal replacement, not positional: every occurrence of a matched
	// literal is rewritten, including occurrences inside chunks or contexts
	// the matcher never visited.
	out := text
	for _, name := range scanned.Matches.Names() {
		for _, literal := range scanned.Matches.Matches(name) {
			out = strings.ReplaceAll(out, literal, redact.Replacement(name, literal))
			result.Replaced++
		}
	}
	result.Text = out

	if result.Replaced > 0 {
		e.logger.Debug("Anonymized text",
			zap.String("identity", identity),
			zap.Int("literals", result.Replaced),
		)
		e.scanner.RecordEvent(ctx, identity, scan.ActionAnonymize, scanned.Matches, "")
	}
	return result
}
