package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicySanitize(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Top Choice", "Top Choice"},
		{"empty", "", ""},
		{"script removed", `<script>alert(1)</script>Best`, "Best"},
		{"inline markup kept", "<em>Editor</em> pick", "<em>Editor</em> pick"},
		{"event handler dropped", `<b onclick="x()">Bold</b>`, "<b>Bold</b>"},
		{"url untouched", "https://www.amazon.com/dp/B000TEST", "https://www.amazon.com/dp/B000TEST"},
		{"partner id", "site-20", "site-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Sanitize(tt.in))
		})
	}
}
