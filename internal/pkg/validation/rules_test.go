package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringValidation(t *testing.T) {
	tests := []struct {
		name string
		v    *StringValidation
		want bool
	}{
		{"required empty", NewStringValidation(""), false},
		{"no pattern", NewStringValidation("anything"), true},
		{"username too long", NewStringValidation(strings.Repeat("a", 151)).WithPattern(CompiledPatterns.Username), false},
		{"email ok", NewStringValidation("abebe@kebele.gov.et").WithPattern(CompiledPatterns.Email), true},
		{"email bad", NewStringValidation("abebe@").WithPattern(CompiledPatterns.Email), false},
		{"username ok", NewStringValidation("abebe.k").WithPattern(CompiledPatterns.Username), true},
		{"username spaces", NewStringValidation("abebe k").WithPattern(CompiledPatterns.Username), false},
		{"phone ok", NewStringValidation("+251 911 000000").WithPattern(CompiledPatterns.Phone), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Validate())
		})
	}
}

func TestPasswordProblem(t *testing.T) {
	assert.NotEmpty(t, PasswordProblem("short1"))
	assert.NotEmpty(t, PasswordProblem("12345678"))
	assert.NotEmpty(t, PasswordProblem("abcdefgh"))
	assert.Empty(t, PasswordProblem("abcdefg1"))
}
