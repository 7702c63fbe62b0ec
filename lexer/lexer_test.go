package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_QuotedValuePreservesSpaces(t *testing.T) {
	toks, err := Tokenize(`FIND users WHERE name = "John Doe"`)
	require.NoError(t, err)

	var texts []string
	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind == EOF {
			continue
		}
		texts = append(texts, tok.Text)
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []string{"FIND", "users", "WHERE", "name", "=", "John Doe"}, texts)
	assert.Equal(t, String, kinds[len(kinds)-1])
}

func TestTokenize_OperatorsLongestMatchFirst(t *testing.T) {
	toks, err := Tokenize("age >= 18")
	require.NoError(t, err)
	require.Len(t, toks, 4) // age, >=, 18, EOF
	assert.Equal(t, ">=", toks[1].Text)
}

func TestTokenize_UnterminatedQuoteReportsOpeningPosition(t *testing.T) {
	_, err := Tokenize(`FIND users WHERE name = "John`)
	require.Error(t, err)
	var lexErr *LexicalError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 24, lexErr.Position)
}

func TestTokenize_ParensAndCommasAreOwnTokens(t *testing.T) {
	toks, err := Tokenize("status IN (active,pending)")
	require.NoError(t, err)
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, LParen)
	assert.Contains(t, kinds, Comma)
	assert.Contains(t, kinds, RParen)
}

func TestTokenize_BracketsAreOwnTokens(t *testing.T) {
	toks, err := Tokenize(`role NOT IN ["admin","super_admin"]`)
	require.NoError(t, err)
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, LBracket)
	assert.Contains(t, kinds, RBracket)
}

func TestTokenize_IdempotentUnderWhitespaceNormalization(t *testing.T) {
	a, err := Tokenize("FIND  users   WHERE status = 'x'")
	require.NoError(t, err)
	b, err := Tokenize("FIND users WHERE status = 'x'")
	require.NoError(t, err)

	require.Len(t, a, len(b))
	for i := range a {
		assert.Equal(t, a[i].Kind, b[i].Kind)
		assert.Equal(t, a[i].Text, b[i].Text)
	}
}
