package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPrefix(t *testing.T) {
	assert.Equal(t, "photos/a.jpg", joinPrefix("", "/photos/a.jpg"))
	assert.Equal(t, "bed/photos/a.jpg", joinPrefix(" /bed/ ", "photos/a.jpg"))
	assert.Equal(t, "a/b/qr/photo_1.png", joinPrefix("a/b", "qr/photo_1.png"))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "image/png", contentTypeForKey("qr/photo_1.png"))
	assert.Equal(t, "image/jpeg", contentTypeForKey("photos/2024/01/01/a.jpg"))
	assert.Equal(t, "application/octet-stream", contentTypeForKey("noext"))
}

func TestBufferBody(t *testing.T) {
	r, err := bufferBody(io.NopCloser(strings.NewReader("hello")), "k")
	require.NoError(t, err)

	_, err = r.Seek(1, io.SeekStart)
	require.NoError(t, err)
	rest, _ := io.ReadAll(r)
	assert.Equal(t, "ello", string(rest))

	_, err = readPayload(nil)
	assert.Error(t, err)
}
