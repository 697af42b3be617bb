package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "未分", Truncate("未分类", 2))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a\n\t b   c  "))
	assert.Equal(t, "", CollapseWhitespace(" \n "))
}

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL("  https://example.com/path ")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/path", got)

	for _, bad := range []string{"", "ftp://example.com", "not a url", "http://"} {
		_, err := NormalizeURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/favicon.ico", ResolveURL("https://example.com/a/b", "/favicon.ico"))
	assert.Equal(t, "https://example.com/a/icon.png", ResolveURL("https://example.com/a/b", "icon.png"))
	assert.Equal(t, "https://cdn.example.net/i.png", ResolveURL("https://example.com", "https://cdn.example.net/i.png"))
	assert.Equal(t, "", ResolveURL("https://example.com", ""))
}
