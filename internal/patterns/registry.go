package patterns

import (
	"regexp"

	"go.uber.org/zap"
)

// Registry hands out compiled pattern sets and merges per-identity custom
// definitions into them. The built-in sets are process-wide and read-only;
// custom definitions are compiled fresh on every merge because they can
// change between calls for the same identity.
type Registry struct {
	logger *zap.Logger
}

// NewRegistry creates a pattern registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// PatternSet returns the compiled built-in patterns for the given level.
// The returned slice is shared; callers must not mutate it.
func (r *Registry) PatternSet(level Level) []Compiled {
	if level == LevelStrict {
		return strictSet
	}
	return standardSet
}

// Merge builds a fresh pattern set from the built-ins for the given level
// plus the identity's custom definitions, in their declared order. A custom
// definition sharing a built-in's name overrides it for this set only.
// Custom strict-only rules are excluded from standard scans. A definition
// with an invalid expression is dropped with a warning; the rest proceed.
func (r *Registry) Merge(level Level, custom []Definition) []Compiled {
	base := r.PatternSet(level)
	merged := make([]Compiled, len(base), len(base)+len(custom))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, c := range merged {
		index[c.Name] = i
	}

	for _, def := range custom {
		if def.Name == "" || def.Expr == "" {
			continue
		}
		if level == LevelStandard && ParseLevel(string(def.Level)) == LevelStrict {
			// Custom strict-only rules never apply in a standard scan
			continue
		}

		re, err := regexp.Compile(def.Expr)
		if err != nil {
			r.logger.Warn("Dropping custom pattern with invalid expression",
				zap.String("pattern", def.Name),
				zap.Error(err),
			)
			continue
		}

		if def.Confidence == 0 {
			// Unspecified confidence means the rule is always evaluated
			def.Confidence = 1.0
		}

		c := Compiled{Definition: def, Regexp: re}
		if i, ok := index[def.Name]; ok {
			merged[i] = c
		} else {
			index[def.Name] = len(merged)
			merged = append(merged, c)
		}
	}

	return merged
}

// FilterByConfidence drops entries below the minimum confidence so that
// low-confidence matchers are never run at all.
func FilterByConfidence(set []Compiled, minConfidence float64) []Compiled {
	filtered := make([]Compiled, 0, len(set))
	for _, c := range set {
		if c.Confidence >= minConfidence {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
