package parser

import (
	"strconv"
	"strings"

	"github.com/queryfabric/uql/lexer"
)

// literalValue converts one token into the value it denotes, per
// spec.md §4.1 point 4: quoted strings strip their quotes verbatim
// (the lexer already did that); unquoted words attempt a boolean
// then numeric reading, falling back to the bare identifier string.
func literalValue(tok lexer.Token) (any, error) {
	switch tok.Kind {
	case lexer.String:
		return tok.Text, nil
	case lexer.Number:
		return parseNumber(tok.Text)
	case lexer.Word:
		switch strings.ToUpper(tok.Text) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		if n, err := parseNumber(tok.Text); err == nil {
			return n, nil
		}
		return tok.Text, nil
	default:
		return nil, &LiteralError{Message: "expected a literal value, found " + tok.Text, Pos: tok.Pos}
	}
}

func parseNumber(text string) (any, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}
	return i, nil
}
