package logger

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultSensitiveFields are the column names whose bound values are masked
// when no explicit list is given.
var DefaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey", "api_token", "access_token", "refresh_token",
	"secret", "client_secret", "auth", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "social_security",
	"private_key", "priv_key",
}

// maskValue replaces masked bindings in log output.
const maskValue = "***REDACTED***"

// sqlWords are skipped when looking for the column a placeholder is bound to.
var sqlWords = map[string]bool{
	"and": true, "or": true, "not": true, "like": true, "ilike": true, "in": true,
	"between": true, "is": true, "null": true, "set": true, "where": true, "on": true,
	"values": true, "cast": true, "as": true, "text": true, "having": true, "limit": true,
	"offset": true, "select": true, "from": true, "exists": true, "regexp": true, "rlike": true,
}

// Sanitizer masks bindings destined for sensitive columns before they are logged.
// Each "?" placeholder is paired with the column it is compared to or assigned
// to; INSERT value tuples are paired positionally with the column list.
type Sanitizer struct {
	fields map[string]bool
}

// NewSanitizer creates a sanitizer for the given column names (case-insensitive).
// An empty list uses DefaultSensitiveFields.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = DefaultSensitiveFields
	}
	fields := make(map[string]bool, len(sensitiveFields))
	for _, f := range sensitiveFields {
		fields[strings.ToLower(f)] = true
	}
	return &Sanitizer{fields: fields}
}

// MaskParams returns params with the values bound to sensitive columns replaced.
// params itself is never modified.
func (s *Sanitizer) MaskParams(sql string, params []interface{}) []interface{} {
	if len(params) == 0 {
		return params
	}
	columns := PlaceholderColumns(sql)

	var masked []interface{}
	for i := range params {
		if i >= len(columns) || !s.isSensitive(columns[i]) {
			continue
		}
		if masked == nil {
			masked = append([]interface{}{}, params...)
		}
		masked[i] = maskValue
	}
	if masked == nil {
		return params
	}
	return masked
}

func (s *Sanitizer) isSensitive(column string) bool {
	if column == "" {
		return false
	}
	column = strings.ToLower(column)
	if i := strings.LastIndex(column, "."); i >= 0 {
		column = column[i+1:]
	}
	return s.fields[column]
}

// FormatParams renders params for a log line, truncating long values.
func (s *Sanitizer) FormatParams(params []interface{}) string {
	if len(params) == 0 {
		return "[]"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	str := fmt.Sprintf("%v", v)
	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// PlaceholderColumns returns, for each "?" placeholder in sql, the column it
// is bound to, or "" when none can be determined.
func PlaceholderColumns(sql string) []string {
	tokens := tokenize(sql)

	var insertColumns []string
	if len(tokens) > 0 && strings.EqualFold(tokens[0].text, "insert") {
		insertColumns = insertColumnList(tokens)
	}

	var (
		out        []string
		last       string
		inValues   bool
		tuplePos   int
		tupleDepth int
	)
	for _, tok := range tokens {
		switch {
		case tok.kind == tokIdent && !tok.quoted && strings.EqualFold(tok.text, "values"):
			inValues = insertColumns != nil
		case tok.kind == tokPunct && tok.text == "(" && inValues:
			tupleDepth++
			if tupleDepth == 1 {
				tuplePos = 0
			}
		case tok.kind == tokPunct && tok.text == ")" && inValues:
			tupleDepth--
		case tok.kind == tokPunct && tok.text == "," && inValues && tupleDepth == 1:
			tuplePos++
		case tok.kind == tokIdent:
			if tok.quoted || !sqlWords[strings.ToLower(tok.text)] {
				last = tok.text
			}
		case tok.kind == tokPlaceholder:
			if inValues && tupleDepth == 1 && tuplePos < len(insertColumns) {
				out = append(out, insertColumns[tuplePos])
			} else {
				out = append(out, last)
			}
		}
	}
	return out
}

// insertColumnList extracts the column list of "insert into t (a, b) values ...".
func insertColumnList(tokens []token) []string {
	var cols []string
	depth := 0
	for _, tok := range tokens {
		if tok.kind == tokIdent && !tok.quoted && strings.EqualFold(tok.text, "values") {
			return cols
		}
		if tok.kind == tokIdent && !tok.quoted && strings.EqualFold(tok.text, "select") {
			return nil
		}
		switch {
		case tok.kind == tokPunct && tok.text == "(":
			depth++
		case tok.kind == tokPunct && tok.text == ")":
			depth--
		case tok.kind == tokIdent && depth == 1:
			cols = append(cols, tok.text)
		}
	}
	return nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokPlaceholder
	tokPunct
)

type token struct {
	kind   tokenKind
	text   string
	quoted bool
}

// tokenize splits SQL into identifiers, placeholders and punctuation. String
// literals and numbers are dropped.
func tokenize(sql string) []token {
	var tokens []token
	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\'':
			for i++; i < len(runes); i++ {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						continue
					}
					break
				}
			}
		case c == '"' || c == '`':
			start := i + 1
			for i++; i < len(runes) && runes[i] != c; i++ {
			}
			text := string(runes[start:min(i, len(runes))])
			tokens = append(tokens, token{kind: tokIdent, text: text, quoted: true})
		case c == '?':
			tokens = append(tokens, token{kind: tokPlaceholder, text: "?"})
		case c == '(' || c == ')' || c == ',':
			tokens = append(tokens, token{kind: tokPunct, text: string(c)})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
			i--
		}
	}
	return tokens
}
