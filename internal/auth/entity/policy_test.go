package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "all classes", password: "Abcdef1!", want: true},
		{name: "long and mixed", password: "Tr0ub4dor&3xyz", want: true},
		{name: "too short", password: "Ab1!xyz", want: false},
		{name: "missing upper", password: "abcdef1!", want: false},
		{name: "missing lower", password: "ABCDEF1!", want: false},
		{name: "missing digit", password: "Abcdefg!", want: false},
		{name: "missing symbol", password: "Abcdefg1", want: false},
		{name: "symbol outside set", password: "Abcdef1?", want: false},
		{name: "non ascii letters do not count", password: "Ébcdef1!", want: false},
		{name: "runes not bytes", password: "Aé1!éé", want: false},
		{name: "empty", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrongPassword(tt.password))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
