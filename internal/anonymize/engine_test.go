package anonymize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/patterns"
	"github.com/dataveil/dataveil/internal/scan"
)

type fakeProvider struct {
	settings *scan.Settings
}

func (f *fakeProvider) Settings(ctx context.Context, identity string) (*scan.Settings, error) {
	if f.settings == nil {
		return nil, fmt.Errorf("unknown identity")
	}
	return f.settings, nil
}

type memorySink struct {
	mu     sync.Mutex
	events []scan.Event
}

func (m *memorySink) Record(ctx context.Context, event scan.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func newTestAnonymizer(settings *scan.Settings, sink scan.Sink) *Engine {
	cfg := config.ScannerConfig{MinConfidence: 0.7, MaxWorkers: 4, ChunkSize: 1000, FileChunkSize: 2000}
	scanner := scan.NewEngine(patterns.NewRegistry(zap.NewNop()), &fakeProvider{settings: settings}, sink, cfg, zap.NewNop())
	return NewEngine(scanner, zap.NewNop())
}

func autoSettings() *scan.Settings {
	return &scan.Settings{ScanEnabled: true, ScanLevel: patterns.LevelStandard, AutoAnonymize: true}
}

func TestAnonymize(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesWithCategoryTokens", func(t *testing.T) {
		engine := newTestAnonymizer(autoSettings(), nil)

		result := engine.Anonymize(ctx, "t", "card 4111-1111-1111-1111, mail alice@example.com")
		if !result.Sensitive {
			t.Fatal("Expected detection")
		}
		if !strings.Contains(result.Text, "XXXX-XXXX-XXXX-1111") {
			t.Errorf("Card not redacted with last four: %q", result.Text)
		}
		if !strings.Contains(result.Text, "email@redacted.com") {
			t.Errorf("Email not redacted: %q", result.Text)
		}
		if strings.Contains(result.Text, "alice@example.com") {
			t.Errorf("Original literal survived: %q", result.Text)
		}
	})

	t.Run("ReplacesEveryOccurrence", func(t *testing.T) {
		engine := newTestAnonymizer(autoSettings(), nil)

		result := engine.Anonymize(ctx, "t", "bob@x.com wrote to bob@x.com about bob@x.com")
		if strings.Contains(result.Text, "bob@x.com") {
			t.Errorf("Occurrence survived: %q", result.Text)
		}
		if got := strings.Count(result.Text, "email@redacted.com"); got != 3 {
			t.Errorf("Expected 3 replacements, got %d: %q", got, result.Text)
		}
	})

	t.Run("CleanTextUnchanged", func(t *testing.T) {
		engine := newTestAnonymizer(autoSettings(), nil)
		input := "nothing to hide here"
		result := engine.Anonymize(ctx, "t", input)
		if result.Text != input || result.Sensitive || result.Replaced != 0 {
			t.Errorf("Clean text altered: %+v", result)
		}
	})

	t.Run("AutoAnonymizeOffReportsButKeepsText", func(t *testing.T) {
		settings := autoSettings()
		settings.AutoAnonymize = false
		engine := newTestAnonymizer(settings, nil)

		input := "mail carol@example.com"
		result := engine.Anonymize(ctx, "t", input)
		if !result.Sensitive {
			t.Error("Detection report missing")
		}
		if result.Text != input {
			t.Errorf("Text changed with auto-anonymize off: %q", result.Text)
		}
	})

	t.Run("UnknownIdentityKeepsText", func(t *testing.T) {
		engine := newTestAnonymizer(nil, nil)
		input := "mail carol@example.com"
		result := engine.Anonymize(ctx, "t", input)
		if result.Sensitive || result.Text != input {
			t.Errorf("Unknown identity should fail open: %+v", result)
		}
	})

	t.Run("CustomPatternGetsFallbackToken", func(t *testing.T) {
		settings := autoSettings()
		settings.CustomPatterns = []patterns.Definition{
			{Name: "employee_id", Expr: `\bEMP-\d{5}\b`, Level: patterns.LevelStandard, Confidence: 0.9},
		}
		engine := newTestAnonymizer(settings, nil)

		result := engine.Anonymize(ctx, "t", "badge EMP-00421")
		if !strings.Contains(result.Text, "[REDACTED EMPLOYEE_ID]") {
			t.Errorf("Custom pattern not redacted with fallback token: %q", result.Text)
		}
	})

	t.Run("OutputDoesNotRetrigger", func(t *testing.T) {
		engine := newTestAnonymizer(autoSettings(), nil)

		first := engine.Anonymize(ctx, "t", "ssn 123-45-6789 mail dave@example.com")
		second := engine.Anonymize(ctx, "t", first.Text)
		if second.Sensitive {
			t.Errorf("Anonymized output re-triggered detection: %v, text %q",
				second.Matches.Names(), first.Text)
		}
		if second.Text != first.Text {
			t.Errorf("Second pass changed the text: %q vs %q", second.Text, first.Text)
		}
	})

	t.Run("RecordsAnonymizeEvent", func(t *testing.T) {
		sink := &memorySink{}
		engine := newTestAnonymizer(autoSettings(), sink)

		engine.Anonymize(ctx, "t", "mail erin@example.com")

		sink.mu.Lock()
		defer sink.mu.Unlock()
		var actions []scan.Action
		for _, e := range sink.events {
			actions = append(actions, e.Action)
		}
		// The scan itself records one event, the substitution another
		if len(actions) != 2 || actions[0] != scan.ActionScan || actions[1] != scan.ActionAnonymize {
			t.Errorf("Recorded actions = %v", actions)
		}
	})
}
