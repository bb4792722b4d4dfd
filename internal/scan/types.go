package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dataveil/dataveil/internal/patterns"
)

// MatchSet maps pattern names to the distinct literal substrings they
// matched. Name order follows evaluation order and literal order is
// first-seen; exact duplicates within one name are never stored.
type MatchSet struct {
	names  []string
	values map[string][]string
}

// Add records a matched literal under a pattern name, deduplicating by
// exact string equality. It reports whether the literal was new.
func (m *MatchSet) Add(name, literal string) bool {
	if m.values == nil {
		m.values = make(map[string][]string)
	}
	existing, ok := m.values[name]
	if !ok {
		m.names = append(m.names, name)
	}
	for _, v := range existing {
		if v == literal {
			return false
		}
	}
	m.values[name] = append(existing, literal)
	return true
}

// Merge appends all of other's matches that are not already present
func (m *MatchSet) Merge(other *MatchSet) {
	for _, name := range other.names {
		for _, literal := range other.values[name] {
			m.Add(name, literal)
		}
	}
}

// Names returns the pattern names in first-seen order
func (m *MatchSet) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Matches returns the distinct literals recorded under a pattern name
func (m *MatchSet) Matches(name string) []string {
	literals := make([]string, len(m.values[name]))
	copy(literals, m.values[name])
	return literals
}

// Len returns the number of distinct pattern names matched
func (m *MatchSet) Len() int {
	return len(m.names)
}

// Empty reports whether nothing was matched
func (m *MatchSet) Empty() bool {
	return len(m.names) == 0
}

// MarshalJSON encodes the set as a JSON object preserving name order
func (m MatchSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		vals, err := json.Marshal(m.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the set, preserving key order
func (m *MatchSet) UnmarshalJSON(data []byte) error {
	m.names = nil
	m.values = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("matchset: expected JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("matchset: expected string key")
		}
		var literals []string
		if err := dec.Decode(&literals); err != nil {
			return err
		}
		for _, literal := range literals {
			m.Add(name, literal)
		}
	}
	return nil
}

// Result is the outcome of one scan call
type Result struct {
	Sensitive bool          `json:"sensitive_found"`
	Matches   MatchSet      `json:"matches"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Severity classifies a detection by how many distinct pattern names matched
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFor derives severity from the count of distinct matched pattern
// names. More than two distinct names is high, anything else found is
// medium. Occurrence volume deliberately does not factor in.
func SeverityFor(matches *MatchSet) Severity {
	if matches.Len() > 2 {
		return SeverityHigh
	}
	return SeverityMedium
}

// Action identifies what triggered a detection event
type Action string

const (
	ActionScan      Action = "scan"
	ActionAnonymize Action = "anonymize"
	ActionBlock     Action = "block"
)

// Event is the audit record emitted after a call that found something.
// Events are append-only; the engine writes them and never reads them back.
type Event struct {
	Identity  string    `json:"identity" db:"identity"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Action    Action    `json:"action" db:"action"`
	Severity  Severity  `json:"severity" db:"severity"`
	Matches   MatchSet  `json:"matches" db:"matches"`
	FileNames string    `json:"file_names,omitempty" db:"file_names"`
}

// Sink receives detection events. Implementations must tolerate concurrent
// calls; a failed write is logged by the engine and otherwise ignored.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Settings are the per-identity scanning preferences
type Settings struct {
	ScanEnabled    bool
	ScanLevel      patterns.Level
	AutoAnonymize  bool
	CustomPatterns []patterns.Definition
}

// SettingsProvider resolves an identity's scanning preferences. A missing or
// unreachable identity must be reported via the error; the engine treats it
// as scanning disabled.
type SettingsProvider interface {
	Settings(ctx context.Context, identity string) (*Settings, error)
}
