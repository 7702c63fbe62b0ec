package parser

import (
	"strings"

	"github.com/queryfabric/uql/lexer"
)

// section is one keyword-delimited chunk of the token stream, per
// spec.md §4.1 point 1. Keyword is normalized (bare JOIN becomes
// "INNER JOIN", FULL OUTER JOIN collapses to "FULL JOIN").
type section struct {
	Keyword string
	Tokens  []lexer.Token
}

// splitSections scans tokens (EOF already trimmed) once, tracking
// paren depth so that keywords appearing inside a value list are never
// mistaken for section boundaries. The first section must be FIND.
func splitSections(tokens []lexer.Token) ([]section, error) {
	var sections []section
	var cur *section
	depth := 0

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Kind {
		case lexer.LParen, lexer.LBracket:
			depth++
		case lexer.RParen, lexer.RBracket:
			depth--
		}

		if depth == 0 {
			if kw, n := classifyBoundary(tokens, i); n > 0 {
				if cur != nil {
					sections = append(sections, *cur)
				}
				cur = &section{Keyword: kw}
				i += n
				continue
			}
		}

		if cur == nil {
			return nil, &MissingEntryOperationError{}
		}
		cur.Tokens = append(cur.Tokens, tok)
		i++
	}
	if cur == nil {
		return nil, &MissingEntryOperationError{}
	}
	sections = append(sections, *cur)

	if sections[0].Keyword != "FIND" {
		return nil, &MissingEntryOperationError{}
	}
	return sections, nil
}

// classifyBoundary reports whether tokens[i:] begins a new section,
// returning the normalized keyword and how many tokens it consumes (0
// if tokens[i] is not a boundary keyword).
func classifyBoundary(tokens []lexer.Token, i int) (string, int) {
	if tokens[i].Kind != lexer.Word {
		return "", 0
	}
	upper := strings.ToUpper(tokens[i].Text)

	word := func(off int) string {
		if i+off >= len(tokens) || tokens[i+off].Kind != lexer.Word {
			return ""
		}
		return strings.ToUpper(tokens[i+off].Text)
	}

	switch upper {
	case "FIND", "FIELDS", "WHERE", "HAVING", "LIMIT", "OFFSET", "AGGREGATE":
		return upper, 1
	case "GROUP":
		if word(1) == "BY" {
			return "GROUP BY", 2
		}
	case "ORDER":
		if word(1) == "BY" {
			return "ORDER BY", 2
		}
	case "JOIN":
		return "INNER JOIN", 1
	case "INNER":
		if word(1) == "JOIN" {
			return "INNER JOIN", 2
		}
	case "LEFT":
		if word(1) == "JOIN" {
			return "LEFT JOIN", 2
		}
	case "RIGHT":
		if word(1) == "JOIN" {
			return "RIGHT JOIN", 2
		}
	case "FULL":
		if word(1) == "OUTER" && word(2) == "JOIN" {
			return "FULL JOIN", 3
		}
		if word(1) == "JOIN" {
			return "FULL JOIN", 2
		}
	}
	return "", 0
}
