package parser

import (
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/lexer"
)

// parseConditions parses a flat "field op value (AND|OR field op value)*"
// chain, per spec.md §4.1 point 4. It consumes the entire token slice
// (section splitting has already isolated it) and returns one
// aqr.Condition per atom.
func parseConditions(tokens []lexer.Token) ([]aqr.Condition, error) {
	var conditions []aqr.Condition
	i := 0
	for i < len(tokens) {
		cond, next, err := parseConditionAtom(tokens, i)
		if err != nil {
			return nil, err
		}
		i = next
		if i < len(tokens) && tokens[i].Kind == lexer.Word {
			switch strings.ToUpper(tokens[i].Text) {
			case "AND":
				cond.Logical = aqr.And
				i++
			case "OR":
				cond.Logical = aqr.Or
				i++
			default:
				return nil, &UnknownOperatorError{Token: tokens[i].Text, Pos: tokens[i].Pos}
			}
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// parseConditionAtom parses one "field op value" atom starting at i and
// returns the index of the first unconsumed token.
func parseConditionAtom(tokens []lexer.Token, i int) (aqr.Condition, int, error) {
	if i >= len(tokens) || tokens[i].Kind != lexer.Word {
		return aqr.Condition{}, i, &UnknownOperatorError{Token: tokenText(tokens, i), Pos: tokenPos(tokens, i)}
	}
	field := tokens[i].Text
	i++

	op, i, err := matchOperator(tokens, i)
	if err != nil {
		return aqr.Condition{}, i, err
	}

	cond := aqr.Condition{Field: field, Op: op}

	switch op {
	case aqr.OpIn, aqr.OpNotIn:
		values, next, err := parseValueList(tokens, i)
		if err != nil {
			return aqr.Condition{}, i, err
		}
		cond.Values = values
		i = next
	case aqr.OpBetween:
		low, i1, err := nextLiteral(tokens, i)
		if err != nil {
			return aqr.Condition{}, i, err
		}
		i = i1
		if i >= len(tokens) || tokens[i].Kind != lexer.Word || strings.ToUpper(tokens[i].Text) != "AND" {
			return aqr.Condition{}, i, &MalformedJoinError{Message: "BETWEEN requires AND between its two bounds"}
		}
		i++
		high, i2, err := nextLiteral(tokens, i)
		if err != nil {
			return aqr.Condition{}, i, err
		}
		cond.Low = low
		cond.High = high
		i = i2
	default:
		val, next, err := nextLiteral(tokens, i)
		if err != nil {
			return aqr.Condition{}, i, err
		}
		cond.Value = val
		i = next
	}

	return cond, i, nil
}

// matchOperator recognizes the operator token(s) at i, matching
// longest-first: NOT IN before IN, >=/<=/!=/ILIKE before their
// shorter counterparts (the lexer already grouped >=, <=, != into one
// Operator token; NOT IN and the word-form operators need a
// two-token/case-insensitive check here).
func matchOperator(tokens []lexer.Token, i int) (aqr.Op, int, error) {
	if i >= len(tokens) {
		return "", i, &UnknownOperatorError{Token: "", Pos: tokenPos(tokens, i)}
	}
	tok := tokens[i]

	if tok.Kind == lexer.Operator {
		switch tok.Text {
		case "=":
			return aqr.OpEq, i + 1, nil
		case "!=":
			return aqr.OpNeq, i + 1, nil
		case ">":
			return aqr.OpGt, i + 1, nil
		case "<":
			return aqr.OpLt, i + 1, nil
		case ">=":
			return aqr.OpGte, i + 1, nil
		case "<=":
			return aqr.OpLte, i + 1, nil
		}
		return "", i, &UnknownOperatorError{Token: tok.Text, Pos: tok.Pos}
	}

	if tok.Kind != lexer.Word {
		return "", i, &UnknownOperatorError{Token: tok.Text, Pos: tok.Pos}
	}

	upper := strings.ToUpper(tok.Text)
	if upper == "NOT" && i+1 < len(tokens) && tokens[i+1].Kind == lexer.Word && strings.ToUpper(tokens[i+1].Text) == "IN" {
		return aqr.OpNotIn, i + 2, nil
	}
	switch upper {
	case "IN":
		return aqr.OpIn, i + 1, nil
	case "LIKE":
		return aqr.OpLike, i + 1, nil
	case "ILIKE":
		return aqr.OpILike, i + 1, nil
	case "BETWEEN":
		return aqr.OpBetween, i + 1, nil
	}
	return "", i, &UnknownOperatorError{Token: tok.Text, Pos: tok.Pos}
}

func nextLiteral(tokens []lexer.Token, i int) (any, int, error) {
	if i >= len(tokens) {
		return nil, i, &LiteralError{Message: "expected a value", Pos: tokenPos(tokens, i)}
	}
	val, err := literalValue(tokens[i])
	if err != nil {
		return nil, i, err
	}
	return val, i + 1, nil
}

// parseValueList parses a comma-separated literal list for IN / NOT
// IN, delimited by either parentheses or brackets per spec.md §4.1
// point 4, tolerating a trailing comma before the close delimiter.
// The close delimiter must match the open one.
func parseValueList(tokens []lexer.Token, i int) ([]any, int, error) {
	if i >= len(tokens) || (tokens[i].Kind != lexer.LParen && tokens[i].Kind != lexer.LBracket) {
		return nil, i, &MalformedJoinError{Message: "IN/NOT IN requires a parenthesized or bracketed value list"}
	}
	closeKind := lexer.RParen
	if tokens[i].Kind == lexer.LBracket {
		closeKind = lexer.RBracket
	}
	i++
	var values []any
	for i < len(tokens) && tokens[i].Kind != closeKind {
		val, next, err := nextLiteral(tokens, i)
		if err != nil {
			return nil, i, err
		}
		values = append(values, val)
		i = next
		if i < len(tokens) && tokens[i].Kind == lexer.Comma {
			i++
			continue
		}
		break
	}
	if i >= len(tokens) || tokens[i].Kind != closeKind {
		return nil, i, &LiteralError{Message: "unterminated value list", Pos: tokenPos(tokens, i)}
	}
	return values, i + 1, nil
}

func tokenText(tokens []lexer.Token, i int) string {
	if i < len(tokens) {
		return tokens[i].Text
	}
	return ""
}

func tokenPos(tokens []lexer.Token, i int) int {
	if i < len(tokens) {
		return tokens[i].Pos
	}
	if len(tokens) > 0 {
		return tokens[len(tokens)-1].Pos
	}
	return 0
}
