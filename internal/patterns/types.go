package patterns

import "regexp"

// Level selects the scan thoroughness tier. The strict pattern set is a
// strict superset of the standard set.
type Level string

const (
	LevelStandard Level = "standard"
	LevelStrict   Level = "strict"
)

// ParseLevel normalizes a level string, defaulting to standard
func ParseLevel(s string) Level {
	if s == string(LevelStrict) {
		return LevelStrict
	}
	return LevelStandard
}

// Definition describes one detection rule: a named regular expression with
// the tier it belongs to and a heuristic precision estimate in [0,1].
// Patterns below the active minimum confidence are never evaluated.
type Definition struct {
	Name       string  `json:"name"`
	Expr       string  `json:"pattern"`
	Level      Level   `json:"level"`
	Confidence float64 `json:"confidence"`
}

// Compiled pairs a definition with its compiled matcher
type Compiled struct {
	Definition
	Regexp *regexp.Regexp
}
