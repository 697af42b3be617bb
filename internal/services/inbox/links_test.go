package inbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLinks(t *testing.T) {
	links := textLinks("See https://a.example/x. Also (https://b.example/wiki/Go_(lang)) and ftp://c.example, http://d.example/?q=1!")
	assert.Equal(t, []string{
		"https://a.example/x",
		"https://b.example/wiki/Go_(lang)",
		"http://d.example/?q=1",
	}, links)
}

func TestHTMLLinks(t *testing.T) {
	links, err := htmlLinks(strings.NewReader(`<a href="https://a.example">a</a><a href="/relative">r</a><a href="javascript:void(0)">j</a>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example"}, links)
}

func TestUniqueLinksAndSubject(t *testing.T) {
	assert.Equal(t, []string{"https://a.example/"}, uniqueLinks([]string{"https://a.example/", "https://A.example"}))
	assert.Equal(t, "Great read", cleanSubject("Re: Fwd: Great read"))
	assert.Equal(t, "Plain", cleanSubject("Plain"))
}
