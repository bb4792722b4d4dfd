package patterns

import (
	"testing"

	"go.uber.org/zap"
)

func TestPatternSet(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	t.Run("StandardLevel", func(t *testing.T) {
		set := registry.PatternSet(LevelStandard)
		if len(set) == 0 {
			t.Fatal("Standard set is empty")
		}
		for _, c := range set {
			if c.Level != LevelStandard {
				t.Errorf("Standard set contains strict pattern %q", c.Name)
			}
		}
	})

	t.Run("StrictIsSuperset", func(t *testing.T) {
		standard := registry.PatternSet(LevelStandard)
		strict := registry.PatternSet(LevelStrict)

		if len(strict) <= len(standard) {
			t.Fatalf("Strict set (%d) not larger than standard set (%d)", len(strict), len(standard))
		}

		strictNames := make(map[string]bool, len(strict))
		for _, c := range strict {
			strictNames[c.Name] = true
		}
		for _, c := range standard {
			if !strictNames[c.Name] {
				t.Errorf("Standard pattern %q missing from strict set", c.Name)
			}
		}
	})

	t.Run("AllCompiled", func(t *testing.T) {
		for _, c := range registry.PatternSet(LevelStrict) {
			if c.Regexp == nil {
				t.Errorf("Pattern %q has no compiled expression", c.Name)
			}
			if c.Confidence <= 0 || c.Confidence > 1 {
				t.Errorf("Pattern %q has confidence %g outside (0,1]", c.Name, c.Confidence)
			}
		}
	})
}

func TestMerge(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	t.Run("CustomAppendedInOrder", func(t *testing.T) {
		custom := []Definition{
			{Name: "employee_id", Expr: `\bEMP-\d{5}\b`, Level: LevelStandard, Confidence: 0.9},
			{Name: "project_code", Expr: `\bPRJ-[A-Z]{3}\b`, Level: LevelStandard, Confidence: 0.8},
		}
		merged := registry.Merge(LevelStandard, custom)

		base := registry.PatternSet(LevelStandard)
		if len(merged) != len(base)+2 {
			t.Fatalf("Expected %d patterns, got %d", len(base)+2, len(merged))
		}
		if merged[len(merged)-2].Name != "employee_id" || merged[len(merged)-1].Name != "project_code" {
			t.Error("Custom patterns not appended in declared order")
		}
	})

	t.Run("NameCollisionOverridesInPlace", func(t *testing.T) {
		custom := []Definition{
			{Name: "email", Expr: `\b[a-z]+@corp\.internal\b`, Level: LevelStandard, Confidence: 0.99},
		}
		merged := registry.Merge(LevelStandard, custom)

		base := registry.PatternSet(LevelStandard)
		if len(merged) != len(base) {
			t.Fatalf("Override changed set size: %d vs %d", len(merged), len(base))
		}

		var found *Compiled
		for i := range merged {
			if merged[i].Name == "email" {
				found = &merged[i]
				break
			}
		}
		if found == nil {
			t.Fatal("email pattern missing after override")
		}
		if found.Confidence != 0.99 {
			t.Errorf("Override not applied, confidence = %g", found.Confidence)
		}
		if found.Regexp.MatchString("someone@example.com") {
			t.Error("Overridden pattern still matches the built-in expression")
		}
		if !found.Regexp.MatchString("alice@corp.internal") {
			t.Error("Overridden pattern does not match its own expression")
		}
	})

	t.Run("InvalidExpressionDropped", func(t *testing.T) {
		custom := []Definition{
			{Name: "broken", Expr: `[unclosed`, Level: LevelStandard, Confidence: 0.9},
			{Name: "valid", Expr: `\bVALID\b`, Level: LevelStandard, Confidence: 0.9},
		}
		merged := registry.Merge(LevelStandard, custom)

		for _, c := range merged {
			if c.Name == "broken" {
				t.Error("Invalid pattern was not dropped")
			}
		}
		if merged[len(merged)-1].Name != "valid" {
			t.Error("Valid pattern after an invalid one was not kept")
		}
	})

	t.Run("StrictCustomExcludedFromStandardScan", func(t *testing.T) {
		custom := []Definition{
			{Name: "strict_only", Expr: `\bSTRICT\b`, Level: LevelStrict, Confidence: 0.9},
		}
		merged := registry.Merge(LevelStandard, custom)
		for _, c := range merged {
			if c.Name == "strict_only" {
				t.Error("Strict custom pattern applied in standard scan")
			}
		}

		merged = registry.Merge(LevelStrict, custom)
		if merged[len(merged)-1].Name != "strict_only" {
			t.Error("Strict custom pattern missing from strict scan")
		}
	})

	t.Run("ZeroConfidenceDefaultsToOne", func(t *testing.T) {
		custom := []Definition{
			{Name: "no_confidence", Expr: `\bX\b`, Level: LevelStandard},
		}
		merged := registry.Merge(LevelStandard, custom)
		last := merged[len(merged)-1]
		if last.Name != "no_confidence" || last.Confidence != 1.0 {
			t.Errorf("Expected default confidence 1.0, got %g", last.Confidence)
		}
	})

	t.Run("BaseSetNotMutated", func(t *testing.T) {
		base := registry.PatternSet(LevelStandard)
		before := base[0].Name
		registry.Merge(LevelStandard, []Definition{
			{Name: before, Expr: `changed`, Level: LevelStandard, Confidence: 0.5},
		})
		if registry.PatternSet(LevelStandard)[0].Expr == "changed" {
			t.Error("Merge mutated the shared built-in set")
		}
	})
}

func TestFilterByConfidence(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	set := registry.PatternSet(LevelStrict)

	filtered := FilterByConfidence(set, 0.9)
	for _, c := range filtered {
		if c.Confidence < 0.9 {
			t.Errorf("Pattern %q with confidence %g survived the filter", c.Name, c.Confidence)
		}
	}
	if len(filtered) == 0 || len(filtered) >= len(set) {
		t.Errorf("Filter removed nothing or everything: %d of %d", len(filtered), len(set))
	}

	// bank_account sits below the default threshold on purpose
	for _, c := range FilterByConfidence(set, 0.7) {
		if c.Name == "bank_account" {
			t.Error("bank_account should not clear the 0.7 threshold")
		}
	}
}
