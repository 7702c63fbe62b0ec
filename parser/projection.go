package parser

import (
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/lexer"
)

func isAggFuncName(text string) bool {
	switch strings.ToUpper(text) {
	case "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	}
	return false
}

// splitOnCommas breaks a token slice into comma-separated entries at
// paren depth 0, tolerating a trailing comma (spec.md §4.1 lenience
// clause).
func splitOnCommas(tokens []lexer.Token) [][]lexer.Token {
	var entries [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
		}
		if tok.Kind == lexer.Comma && depth == 0 {
			if len(cur) > 0 {
				entries = append(entries, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	if len(cur) > 0 {
		entries = append(entries, cur)
	}
	return entries
}

// parseProjectionEntries parses a comma-separated list that may mix
// bare field names with aggregate calls in either accepted form (spec
// §4.1 point 7): `FUNC(field) AS alias` or `alias: FUNC(field)`.
func parseProjectionEntries(tokens []lexer.Token) ([]string, []aqr.Aggregate, error) {
	var fields []string
	var aggs []aqr.Aggregate

	for _, entry := range splitOnCommas(tokens) {
		if len(entry) == 0 {
			continue
		}

		if entry[0].Kind == lexer.Word && strings.HasSuffix(entry[0].Text, ":") && len(entry[0].Text) > 1 {
			alias := strings.TrimSuffix(entry[0].Text, ":")
			agg, err := parseAggregateCall(entry[1:], alias)
			if err != nil {
				return nil, nil, err
			}
			aggs = append(aggs, agg)
			continue
		}

		if entry[0].Kind == lexer.Word && isAggFuncName(entry[0].Text) && len(entry) > 1 && entry[1].Kind == lexer.LParen {
			agg, err := parseAggregateCall(entry, "")
			if err != nil {
				return nil, nil, err
			}
			aggs = append(aggs, agg)
			continue
		}

		if len(entry) != 1 || entry[0].Kind != lexer.Word {
			return nil, nil, &LiteralError{Message: "malformed projection entry", Pos: tokenPos(entry, 0)}
		}
		fields = append(fields, entry[0].Text)
	}

	return fields, aggs, nil
}

// parseAggregateCall parses "FUNC(field) [AS alias]" with alias already
// resolved by the caller when using the "alias: FUNC(field)" form.
func parseAggregateCall(tokens []lexer.Token, alias string) (aqr.Aggregate, error) {
	if len(tokens) < 4 || tokens[0].Kind != lexer.Word || !isAggFuncName(tokens[0].Text) ||
		tokens[1].Kind != lexer.LParen || tokens[2].Kind != lexer.Word || tokens[3].Kind != lexer.RParen {
		return aqr.Aggregate{}, &LiteralError{Message: "malformed aggregate call", Pos: tokenPos(tokens, 0)}
	}
	agg := aqr.Aggregate{
		Function: aqr.AggFunc(strings.ToUpper(tokens[0].Text)),
		Field:    tokens[2].Text,
		Alias:    alias,
	}
	rest := tokens[4:]
	if agg.Alias == "" && len(rest) >= 2 && rest[0].Kind == lexer.Word && strings.ToUpper(rest[0].Text) == "AS" {
		agg.Alias = rest[1].Text
	}
	return agg, nil
}

// parseIdentifierList parses a comma-separated list of bare identifiers
// (GROUP BY, FIELDS-as-plain-list).
func parseIdentifierList(tokens []lexer.Token) ([]string, error) {
	var out []string
	for _, entry := range splitOnCommas(tokens) {
		if len(entry) != 1 || entry[0].Kind != lexer.Word {
			return nil, &LiteralError{Message: "malformed identifier list", Pos: tokenPos(entry, 0)}
		}
		out = append(out, entry[0].Text)
	}
	return out, nil
}

// parseOrderByList parses "field [ASC|DESC]" entries, default ASC.
func parseOrderByList(tokens []lexer.Token) ([]aqr.Order, error) {
	var out []aqr.Order
	for _, entry := range splitOnCommas(tokens) {
		if len(entry) == 0 || entry[0].Kind != lexer.Word {
			return nil, &LiteralError{Message: "malformed ORDER BY entry", Pos: tokenPos(entry, 0)}
		}
		ord := aqr.Order{Field: entry[0].Text, Direction: aqr.Asc}
		if len(entry) >= 2 && entry[1].Kind == lexer.Word {
			switch strings.ToUpper(entry[1].Text) {
			case "ASC":
				ord.Direction = aqr.Asc
			case "DESC":
				ord.Direction = aqr.Desc
			default:
				return nil, &LiteralError{Message: "expected ASC or DESC", Pos: entry[1].Pos}
			}
		}
		out = append(out, ord)
	}
	return out, nil
}

// parseLimitOffset parses a single non-negative integer token.
func parseLimitOffset(tokens []lexer.Token, keyword string) (int, error) {
	if len(tokens) != 1 || tokens[0].Kind != lexer.Number || strings.Contains(tokens[0].Text, ".") {
		return 0, &LiteralError{Message: keyword + " requires a single non-negative integer", Pos: tokenPos(tokens, 0)}
	}
	n, err := parseNumber(tokens[0].Text)
	if err != nil {
		return 0, &LiteralError{Message: err.Error(), Pos: tokens[0].Pos}
	}
	v, ok := n.(int64)
	if !ok || v < 0 {
		return 0, &LiteralError{Message: keyword + " requires a non-negative integer", Pos: tokens[0].Pos}
	}
	return int(v), nil
}

// findMatchingParen returns the index (within tokens) of the RParen
// matching the LParen at tokens[start], or -1 if unterminated.
func findMatchingParen(tokens []lexer.Token, start int) int {
	depth := 0
	for i := start; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
