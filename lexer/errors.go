package lexer

import "fmt"

// LexicalError reports a tokenization failure, positioned at the byte
// offset into the source string where the problem starts (for an
// unterminated quote, that is the position of the opening quote).
type LexicalError struct {
	Message  string
	Position int
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at position %d: %s", e.Position, e.Message)
}
