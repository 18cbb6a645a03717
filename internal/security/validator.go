// Package security guards the statements a DB executes against injection
// patterns and writes an audit trail of what ran.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrUnsafeQuery = errors.New("unsafe query")
	ErrUnsafeParam = errors.New("unsafe parameter")
)

// Validator rejects compiled statements that contain dangerous SQL.
//
// Values bound through the builder never reach the statement text, so the
// query check only fires on fragments inlined with Raw or the *Raw methods.
type Validator struct {
	patterns    []*regexp.Regexp
	strict      bool
	checkParams bool
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithStrict adds patterns that may reject legitimate statements, such as
// any UNION SELECT.
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strict = strict
	}
}

// WithParamChecks also inspects bound string values.
func WithParamChecks(enabled bool) ValidatorOption {
	return func(v *Validator) {
		v.checkParams = enabled
	}
}

// NewValidator creates a validator with the default dangerous patterns.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		patterns: compilePatterns(dangerousPatterns),
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.strict {
		v.patterns = append(v.patterns, compilePatterns(strictPatterns)...)
	}

	return v
}

// dangerousPatterns never appear in statements the grammars compile.
var dangerousPatterns = []string{
	// SQL comment indicators (used to bypass security)
	`--[\s]`,   // SQL comment (with space after)
	`/\*.*\*/`, // C-style comment
	`#[\s]`,    // MySQL comment (with space after)

	// Stacked queries (multiple statements)
	`;\s*DROP\s+`,
	`;\s*DELETE\s+`,
	`;\s*TRUNCATE\s+`,
	`;\s*ALTER\s+`,
	`;\s*CREATE\s+`,
	`;\s*INSERT\s+`,
	`;\s*UPDATE\s+`,

	// Database-specific dangerous functions
	`XP_CMDSHELL`,
	`\bEXEC\s*\(`,
	`\bEXECUTE\s*\(`,
	`SP_EXECUTESQL`,
	`\bEXEC\s+XP_`,
	`\bEXEC\s+SP_`,
	`\bLOAD_FILE\s*\(`,
	`\bINTO\s+(?:OUT|DUMP)FILE\b`,

	// Timing attacks
	`PG_SLEEP\s*\(`,
	`BENCHMARK\s*\(`,
	`WAITFOR\s+DELAY`,

	// Boolean-based blind injection
	`\s+OR\s+1\s*=\s*1\b`,
	`\s+OR\s+'1'\s*=\s*'1'`,
	`\s+AND\s+1\s*=\s*0\b`,
}

// strictPatterns may have false positives.
var strictPatterns = []string{
	`UNION\s+(?:ALL\s+)?SELECT`,
	`INFORMATION_SCHEMA`,
	`\bSLEEP\s*\(`,
	`;`,
}

// ValidateQuery returns ErrUnsafeQuery when query matches a dangerous pattern.
func (v *Validator) ValidateQuery(query string) error {
	normalized := strings.ToUpper(query)

	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return fmt.Errorf("%w: matches %s", ErrUnsafeQuery, pattern)
		}
	}

	return nil
}

// ValidateParams returns ErrUnsafeParam when parameter checks are enabled and
// a string value looks like an injection attempt.
func (v *Validator) ValidateParams(params []interface{}) error {
	if !v.checkParams {
		return nil
	}
	for i, param := range params {
		str, ok := param.(string)
		if !ok {
			continue
		}
		if containsSQLInjection(str) {
			return fmt.Errorf("%w: value at index %d", ErrUnsafeParam, i)
		}
	}

	return nil
}

// Validate runs ValidateQuery and ValidateParams.
func (v *Validator) Validate(query string, params []interface{}) error {
	if err := v.ValidateQuery(query); err != nil {
		return err
	}
	return v.ValidateParams(params)
}

func containsSQLInjection(value string) bool {
	indicators := []string{
		"'--",
		"';",
		"' OR ",
		"' AND ",
		"/*",
		"*/",
		"' UNION ",
		"' DROP ",
		"XP_",
	}

	upper := strings.ToUpper(value)
	for _, indicator := range indicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}

	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
