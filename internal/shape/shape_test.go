package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"categories": "category",
		"addresses":  "address",
		"users":      "user",
		"data":       "data", // no trailing s/ies/ses: left unchanged per the literal rule
		"info":       "info",
	}
	for in, want := range cases {
		assert.Equal(t, want, Singularize(in), in)
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "users", TableName("user"))
	assert.Equal(t, "categories", TableName("category"))
}
