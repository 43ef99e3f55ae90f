package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// The script splitter tokenizes CQL so that semicolons inside string
// literals, quoted names, and comments never terminate a statement, and
// BEGIN ... APPLY BATCH blocks stay together.

type tokenType int

const (
	tokenJunk tokenType = iota
	tokenString
	tokenQuotedName
	tokenPgString
	tokenUnclosed
	tokenEnd
	tokenWord
	tokenOther
)

type scriptToken struct {
	typ   tokenType
	value string
	start int
	end   int
}

// Order matters: most specific first.
var scriptPatterns = []struct {
	typ     tokenType
	pattern *regexp.Regexp
}{
	{tokenJunk, regexp.MustCompile(`^[\s]+`)},
	{tokenJunk, regexp.MustCompile(`^(--|//)[^\n\r]*`)},
	{tokenJunk, regexp.MustCompile(`^/\*[\s\S]*?\*/`)},
	{tokenString, regexp.MustCompile(`^'([^']|'')*'`)},
	{tokenQuotedName, regexp.MustCompile(`^"([^"]|"")*"`)},
	{tokenUnclosed, regexp.MustCompile(`^'([^']|'')*$`)},
	{tokenUnclosed, regexp.MustCompile(`^"([^"]|"")*$`)},
	{tokenUnclosed, regexp.MustCompile(`^/\*[\s\S]*$`)},
	{tokenEnd, regexp.MustCompile(`^;`)},
	{tokenWord, regexp.MustCompile(`(?i)^[a-z][a-z0-9_]*`)},
	{tokenOther, regexp.MustCompile(`^[^;'"\sa-zA-Z]+`)},
}

func lexScript(text string) ([]scriptToken, error) {
	var tokens []scriptToken
	pos := 0

	for pos < len(text) {
		// Go's regexp has no negative lookahead, so $$ strings are
		// handled by hand.
		if strings.HasPrefix(text[pos:], "$$") {
			closeIdx := strings.Index(text[pos+2:], "$$")
			if closeIdx < 0 {
				tokens = append(tokens, scriptToken{tokenUnclosed, text[pos:], pos, len(text)})
				pos = len(text)
				continue
			}
			end := pos + 2 + closeIdx + 2
			tokens = append(tokens, scriptToken{tokenPgString, text[pos:end], pos, end})
			pos = end
			continue
		}

		matched := false
		for _, tp := range scriptPatterns {
			loc := tp.pattern.FindStringIndex(text[pos:])
			if loc == nil || loc[0] != 0 {
				continue
			}
			end := pos + loc[1]
			if tp.typ != tokenJunk {
				tokens = append(tokens, scriptToken{tp.typ, text[pos:end], pos, end})
			}
			pos = end
			matched = true
			break
		}
		if !matched {
			tail := text[pos:]
			if len(tail) > 20 {
				tail = tail[:20]
			}
			return nil, fmt.Errorf("cannot tokenize script at position %d: %q", pos, tail)
		}
	}
	return tokens, nil
}

// SplitStatements splits a multi-statement CQL script into individual
// statement strings. It errors on unterminated strings or comments; a
// missing trailing semicolon on the last statement is tolerated.
func SplitStatements(script string) ([]string, error) {
	tokens, err := lexScript(script)
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		if t.typ == tokenUnclosed {
			return nil, fmt.Errorf("script has an unterminated string or comment at position %d", t.start)
		}
	}

	var groups [][]scriptToken
	var current []scriptToken
	for _, t := range tokens {
		current = append(current, t)
		if t.typ == tokenEnd {
			groups = append(groups, current)
			current = nil
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	// Keep BEGIN ... APPLY BATCH together even though the batched
	// statements carry their own semicolons.
	var stmts [][]scriptToken
	inBatch := false
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		if inBatch && len(stmts) > 0 {
			stmts[len(stmts)-1] = append(stmts[len(stmts)-1], g...)
		} else {
			stmts = append(stmts, g)
		}
		if endsBatch(g) {
			inBatch = false
		} else if strings.EqualFold(g[0].value, "BEGIN") {
			inBatch = true
		}
	}
	if inBatch {
		return nil, fmt.Errorf("script has a BEGIN BATCH without APPLY BATCH")
	}

	var out []string
	for _, stmt := range stmts {
		text := strings.TrimSpace(script[stmt[0].start:stmt[len(stmt)-1].end])
		if text != "" && text != ";" {
			out = append(out, text)
		}
	}
	return out, nil
}

func endsBatch(tokens []scriptToken) bool {
	// Trailing semicolon precedes the check.
	i := len(tokens) - 1
	if i >= 0 && tokens[i].typ == tokenEnd {
		i--
	}
	return i >= 1 &&
		strings.EqualFold(tokens[i-1].value, "APPLY") &&
		strings.EqualFold(tokens[i].value, "BATCH")
}
