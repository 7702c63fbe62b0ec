// Package parser turns a UQL source string into an aqr.Query, per
// spec.md §4.1. It runs in three passes: lex (package lexer), split
// into keyword-delimited sections, then interpret each section in
// whatever order it appeared (FIND must be first; everything else is
// order-independent and, except JOIN, single-use).
package parser

import (
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/lexer"
)

// tokenizeTrimmed tokenizes source and drops the trailing EOF marker,
// so downstream parsing never has to special-case it.
func tokenizeTrimmed(source string) ([]lexer.Token, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	if n := len(tokens); n > 0 && tokens[n-1].Kind == lexer.EOF {
		tokens = tokens[:n-1]
	}
	return tokens, nil
}

// Parse turns a UQL source string into an AQR. The returned query has
// not yet been schema-validated; call aqr.Validate or aqr.Check, or
// use Validate below, which does both steps.
func Parse(source string) (*aqr.Query, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &EmptyQueryError{}
	}

	tokens, err := tokenizeTrimmed(source)
	if err != nil {
		return nil, err
	}

	sections, err := splitSections(tokens)
	if err != nil {
		return nil, err
	}

	q := &aqr.Query{Operation: aqr.OpFind}
	seen := map[string]bool{}

	for _, sec := range sections {
		singleUse := sec.Keyword != "FIND" && !strings.HasSuffix(sec.Keyword, "JOIN")
		if singleUse {
			if seen[sec.Keyword] {
				return nil, &DuplicateSectionError{Keyword: sec.Keyword}
			}
			seen[sec.Keyword] = true
		}

		switch sec.Keyword {
		case "FIND":
			if err := parseFindSection(sec.Tokens, q); err != nil {
				return nil, err
			}
		case "FIELDS", "AGGREGATE":
			fields, aggs, err := parseProjectionEntries(sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.Fields = append(q.Fields, fields...)
			q.Aggregate = append(q.Aggregate, aggs...)
		case "WHERE":
			conds, err := parseConditions(sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.Where = conds
		case "HAVING":
			conds, err := parseConditions(sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.Having = conds
		case "GROUP BY":
			fields, err := parseIdentifierList(sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.GroupBy = fields
		case "ORDER BY":
			orders, err := parseOrderByList(sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.OrderBy = orders
		case "LIMIT":
			n, err := parseLimitOffset(sec.Tokens, "LIMIT")
			if err != nil {
				return nil, err
			}
			q.Limit = &n
		case "OFFSET":
			n, err := parseLimitOffset(sec.Tokens, "OFFSET")
			if err != nil {
				return nil, err
			}
			q.Offset = &n
		case "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL JOIN":
			join, err := parseJoinSection(sec.Keyword, sec.Tokens)
			if err != nil {
				return nil, err
			}
			q.Joins = append(q.Joins, join)
		default:
			return nil, &MalformedJoinError{Message: "unknown section " + sec.Keyword}
		}
	}

	return q, nil
}

// parseFindSection parses "FIND <identifier> [(f1, f2, ...)]".
func parseFindSection(tokens []lexer.Token, q *aqr.Query) error {
	if len(tokens) == 0 {
		return &MissingEntryOperationError{}
	}
	if tokens[0].Kind != lexer.Word {
		return &MissingEntryOperationError{}
	}
	ident := tokens[0].Text
	if idx := strings.Index(ident, "."); idx >= 0 {
		q.SubTable = ident[:idx]
		q.Table = ident[idx+1:]
	} else {
		q.Table = ident
	}

	rest := tokens[1:]
	if len(rest) > 0 && rest[0].Kind == lexer.LParen {
		end := findMatchingParen(rest, 0)
		if end < 0 {
			return &LiteralError{Message: "unterminated projection list", Pos: rest[0].Pos}
		}
		fields, aggs, err := parseProjectionEntries(rest[1:end])
		if err != nil {
			return err
		}
		q.Fields = append(q.Fields, fields...)
		q.Aggregate = append(q.Aggregate, aggs...)
		rest = rest[end+1:]
	}

	if len(rest) != 0 {
		return &LiteralError{Message: "unexpected tokens after FIND target", Pos: rest[0].Pos}
	}
	return nil
}

// Validate parses source and, on success, runs schema validation
// against the resulting AQR, per spec.md §4.1's `Validate(q)` contract
// extended to a raw UQL string (spec.md §6).
func Validate(source string) (bool, []aqr.ValidationError) {
	q, err := Parse(source)
	if err != nil {
		return false, []aqr.ValidationError{{FieldPath: "$", Message: err.Error()}}
	}
	return aqr.Validate(q)
}
