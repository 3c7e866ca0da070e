package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("https://example.com"))
	assert.NoError(t, validateURL("http://example.com/path?q=1"))
	assert.NoError(t, validateURL("data:text/html,<h1>hi</h1>"))

	assert.Error(t, validateURL("file:///etc/passwd"))
	assert.Error(t, validateURL("ftp://example.com"))
	assert.Error(t, validateURL("javascript:alert(1)"))
}

func TestFetchRejectsBadScheme(t *testing.T) {
	_, err := Fetch(context.Background(), "file:///etc/passwd", "", false, "")
	assert.Error(t, err)
}
