package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"user", RoleUser, true},
		{" Human ", RoleUser, true},
		{"assistant", RoleAssistant, true},
		{"MODEL", RoleAssistant, true},
		{"bot", RoleAssistant, true},
		{"system", RoleSystem, true},
		{"tool", "", false},
		{"function", "", false},
		{"assitant", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastUserAnchored(t *testing.T) {
	assert.False(t, LastUserAnchored(nil))
	assert.False(t, LastUserAnchored([]Message{{Role: RoleUser}, {Role: RoleAssistant}}))
	assert.True(t, LastUserAnchored([]Message{{Role: RoleSystem}, {Role: RoleUser}}))
}
