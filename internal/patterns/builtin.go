package patterns

import "regexp"

// builtins is the fixed set of built-in detection rules. Declaration order is
// evaluation order, so scans over the same text are reproducible. Standard
// rules run at every level; strict rules only run in strict scans.
var builtins = []Definition{
	// Standard tier
	{Name: "credit_card", Expr: `\b(?:\d{4}[ -]?){3}\d{4}\b`, Level: LevelStandard, Confidence: 0.85},
	{Name: "ssn", Expr: `\b\d{3}[-]?\d{2}[-]?\d{4}\b`, Level: LevelStandard, Confidence: 0.9},
	{Name: "email", Expr: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`, Level: LevelStandard, Confidence: 0.95},
	{Name: "phone_number", Expr: `\b(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, Level: LevelStandard, Confidence: 0.75},
	{Name: "ip_address", Expr: `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, Level: LevelStandard, Confidence: 0.8},
	{Name: "date_of_birth", Expr: `\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`, Level: LevelStandard, Confidence: 0.7},
	{Name: "address", Expr: `\b\d+\s+[A-Za-z0-9\s,]+\b(?:street|st|avenue|ave|road|rd|highway|hwy|square|sq|trail|trl|drive|dr|court|ct|parkway|pkwy|circle|cir|boulevard|blvd)\b\s*(?:[A-Za-z]+\s*,\s*)?(?:[A-Za-z]+\s*,\s*)?(?:\d{5}(?:-\d{4})?)?`, Level: LevelStandard, Confidence: 0.7},
	{Name: "password", Expr: `\b(?:password|passwd|pwd)[\s:=]+\S+\b`, Level: LevelStandard, Confidence: 0.9},
	{Name: "api_key", Expr: `\b(?:sk-|pk-|api[-_]?key|token)[-_a-zA-Z0-9]{10,}\b`, Level: LevelStandard, Confidence: 0.9},
	{Name: "aws_access_key", Expr: `\bAKIA[0-9A-Z]{16}\b`, Level: LevelStandard, Confidence: 0.95},
	{Name: "aws_secret_key", Expr: `(?i)aws.{0,20}['"][0-9a-zA-Z/+]{40}['"]`, Level: LevelStandard, Confidence: 0.8},
	{Name: "gcp_api_key", Expr: `\bAIza[0-9A-Za-z_\-]{35}\b`, Level: LevelStandard, Confidence: 0.95},
	{Name: "github_token", Expr: `\bgh[pousr]_[A-Za-z0-9]{36,}\b`, Level: LevelStandard, Confidence: 0.95},
	{Name: "slack_token", Expr: `\bxox[baprs]-[A-Za-z0-9-]{10,}\b`, Level: LevelStandard, Confidence: 0.95},
	{Name: "jwt", Expr: `\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]+`, Level: LevelStandard, Confidence: 0.9},
	{Name: "private_key", Expr: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY-----`, Level: LevelStandard, Confidence: 0.95},

	// Strict tier
	{Name: "name", Expr: `\b(?:Mr\.|Mrs\.|Ms\.|Dr\.|Prof\.)\s+[A-Z][a-z]+\s+[A-Z][a-z]+\b`, Level: LevelStrict, Confidence: 0.7},
	{Name: "url", Expr: `https?://(?:www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_\+.~#?&//=]*)`, Level: LevelStrict, Confidence: 0.7},
	{Name: "uuid", Expr: `\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`, Level: LevelStrict, Confidence: 0.85},
	{Name: "passport", Expr: `\b[A-Z]{1,2}[0-9]{6,9}\b`, Level: LevelStrict, Confidence: 0.7},
	{Name: "iban", Expr: `\b[A-Z]{2}\d{2}[ ]?[A-Z0-9]{4}[ ]?(?:[A-Z0-9]{4}[ ]?){1,7}[A-Z0-9]{1,4}\b`, Level: LevelStrict, Confidence: 0.85},
	{Name: "uk_nino", Expr: `\b[A-CEGHJ-PR-TW-Z]{2}[0-9]{6}[A-D]\b`, Level: LevelStrict, Confidence: 0.75},
	{Name: "classification_marker", Expr: `\b(?:TOP SECRET|SECRET|CONFIDENTIAL|UNCLASSIFIED)//[A-Z][A-Z0-9/ ,-]*`, Level: LevelStrict, Confidence: 0.8},
	// Bare account numbers are too ambiguous to clear the default confidence
	// threshold; raise min_confidence tolerance deliberately to enable this.
	{Name: "bank_account", Expr: `\b[0-9]{8,17}\b`, Level: LevelStrict, Confidence: 0.6},
}

// Compiled built-in sets, initialized once at process start and shared
// read-only across all scans. Never mutated after init.
var (
	standardSet []Compiled
	strictSet   []Compiled
)

func init() {
	for _, def := range builtins {
		c := Compiled{Definition: def, Regexp: regexp.MustCompile(def.Expr)}
		if def.Level == LevelStandard {
			standardSet = append(standardSet, c)
		}
		strictSet = append(strictSet, c)
	}
}

// Builtins returns the built-in definitions in declaration order
func Builtins() []Definition {
	defs := make([]Definition, len(builtins))
	copy(defs, builtins)
	return defs
}
