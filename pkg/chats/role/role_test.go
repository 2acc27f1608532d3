package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{System, true},
		{User, true},
		{Assistant, true},
		{Role("developer"), false},
		{Role("System"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Valid())
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "assistant", Assistant.String())
}
