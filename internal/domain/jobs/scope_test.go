package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInScope(t *testing.T) {
	tests := []struct {
		name   string
		target string
		allow  []string
		want   bool
	}{
		{"empty list is permissive", "https://anything.example.com", nil, true},
		{"exact host match", "https://example.com/login", []string{"example.com"}, true},
		{"subdomain matches suffix", "https://a.b.example.com", []string{"example.com"}, true},
		{"lookalike host does not match", "https://evilexample.com", []string{"example.com"}, false},
		{"unrelated host", "https://other.org", []string{"example.com"}, false},
		{"case insensitive", "https://API.Example.COM", []string{"example.com"}, true},
		{"entry whitespace trimmed", "https://example.com", []string{"  example.com  "}, true},
		{"blank entries skipped", "https://example.com", []string{"", "example.com"}, true},
		{"unparseable target fails closed", "http://bad host/%zz", []string{"example.com"}, false},
		{"hostless target fails closed", "not-a-url", []string{"example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InScope(tt.target, tt.allow))
		})
	}
}
