package parser

import (
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/lexer"
)

var joinKindByKeyword = map[string]aqr.JoinKind{
	"INNER JOIN": aqr.InnerJoin,
	"LEFT JOIN":  aqr.LeftJoin,
	"RIGHT JOIN": aqr.RightJoin,
	"FULL JOIN":  aqr.FullJoin,
}

// parseJoinSection parses "<table> [alias] ON <lhs> = <rhs>" per
// spec.md §4.1 point 5.
func parseJoinSection(keyword string, tokens []lexer.Token) (aqr.Join, error) {
	i := 0
	if i >= len(tokens) || tokens[i].Kind != lexer.Word {
		return aqr.Join{}, &MalformedJoinError{Message: "missing join table"}
	}
	table := tokens[i].Text
	i++

	alias := ""
	if i < len(tokens) && tokens[i].Kind == lexer.Word && strings.ToUpper(tokens[i].Text) != "ON" {
		alias = tokens[i].Text
		i++
	}

	if i >= len(tokens) || tokens[i].Kind != lexer.Word || strings.ToUpper(tokens[i].Text) != "ON" {
		return aqr.Join{}, &MalformedJoinError{Message: "missing ON clause"}
	}
	i++

	if i >= len(tokens) || tokens[i].Kind != lexer.Word {
		return aqr.Join{}, &MalformedJoinError{Message: "ON clause missing left-hand side"}
	}
	lhs := tokens[i].Text
	i++

	if i >= len(tokens) || tokens[i].Kind != lexer.Operator || tokens[i].Text != "=" {
		return aqr.Join{}, &MalformedJoinError{Message: "ON clause right-hand side missing '='"}
	}
	i++

	if i >= len(tokens) || tokens[i].Kind != lexer.Word {
		return aqr.Join{}, &MalformedJoinError{Message: "ON clause missing right-hand side"}
	}
	rhs := tokens[i].Text
	i++

	if i != len(tokens) {
		return aqr.Join{}, &MalformedJoinError{Message: "unexpected tokens after ON clause"}
	}

	kind, ok := joinKindByKeyword[keyword]
	if !ok {
		return aqr.Join{}, &MalformedJoinError{Message: "unknown join kind " + keyword}
	}

	return aqr.Join{
		Kind:  kind,
		Table: table,
		Alias: alias,
		On:    aqr.JoinCondition{Left: lhs, Right: rhs},
	}, nil
}
