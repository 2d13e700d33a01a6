package media

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("", color.Black)
	require.NoError(t, err)
	assert.Equal(t, color.Black, c)

	c, err = ParseColor(" Red ", color.Black)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, c)

	c, err = ParseColor("#00ff80", color.Black)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 0xff, B: 0x80, A: 0xff}, c)

	c, err = ParseColor("#fff", color.Black)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	for _, bad := range []string{"bad", "#12345", "#gggggg", "notacolor"} {
		_, err = ParseColor(bad, color.Black)
		assert.ErrorIs(t, err, ErrInvalidParams, bad)
	}
}

func TestQRCodeRenderer_Render(t *testing.T) {
	r := NewQRCodeRenderer()

	data, err := r.Render("https://cdn.test/media/photos/a.jpg", QRColors{FillColor: "navy", BackColor: "#ffffff"})
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())

	_, err = r.Render("x", QRColors{FillColor: "nope"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
