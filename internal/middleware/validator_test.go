package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTargetURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com:8080/path?q=1",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateTargetURL(u), u)
	}

	invalid := []string{
		"",
		"ftp://example.com",
		"javascript:alert(1)",
		"http://localhost:8080",
		"http://127.0.0.1/admin",
		"http://10.0.0.5",
		"http://192.168.1.1",
		"http://172.16.0.1",
	}
	for _, u := range invalid {
		assert.Error(t, ValidateTargetURL(u), u)
	}
}

func TestValidateScanPath(t *testing.T) {
	assert.NoError(t, ValidateScanPath("./repo"))
	assert.NoError(t, ValidateScanPath("projects/acme"))

	invalid := []string{
		"",
		"../../../etc/passwd",
		"/etc/shadow",
		"/proc/self/environ",
		"/root/.ssh",
		"repo; rm -rf /",
		"repo$(whoami)",
		"repo`id`",
		"repo|cat",
	}
	for _, p := range invalid {
		assert.Error(t, ValidateScanPath(p), p)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "acme", SanitizeString("  acme  "))
	assert.Equal(t, "acme", SanitizeString("ac\x00me"))
	assert.Equal(t, "ab", SanitizeString("a\x07b"))
}

func TestPaginationNormalization(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-3))
	assert.Equal(t, 50, ValidateLimit(50))
	assert.Equal(t, 100, ValidateLimit(5000))

	assert.Equal(t, 0, ValidateSkip(-1))
	assert.Equal(t, 7, ValidateSkip(7))
}
