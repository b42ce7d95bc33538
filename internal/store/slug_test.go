package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Phoenix", "phoenix"},
		{"São Paulo", "sao_paulo"},
		{"Ciudad Juárez", "ciudad_juarez"},
		{"New York City", "new_york_city"},
		{"Washington, D.C.", "washington_d_c"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}
