package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleFactors(t *testing.T) {
	hs, vs := scaleFactors(200, 100, 100, 100)
	assert.InDelta(t, 0.5, hs, 1e-9)
	assert.InDelta(t, 1.0, vs, 1e-9)

	hs, vs = scaleFactors(200, 100, 50, 0)
	assert.InDelta(t, 0.25, hs, 1e-9)
	assert.InDelta(t, 0.25, vs, 1e-9)

	hs, vs = scaleFactors(200, 100, 0, 50)
	assert.InDelta(t, 0.5, hs, 1e-9)
	assert.InDelta(t, 0.5, vs, 1e-9)
}

func TestFitScale(t *testing.T) {
	assert.InDelta(t, 0.5, fitScale(200, 100, 100, 100), 1e-9)
	assert.InDelta(t, 0.25, fitScale(400, 100, 100, 0), 1e-9)
}

func TestGravityOffset(t *testing.T) {
	tests := []struct {
		gravity   string
		left, top int
	}{
		{"", 50, 25},
		{"north", 50, 0},
		{"south", 50, 50},
		{"west", 0, 25},
		{"east", 100, 25},
	}
	for _, tt := range tests {
		left, top := gravityOffset(200, 100, 100, 50, tt.gravity)
		assert.Equal(t, tt.left, left, tt.gravity)
		assert.Equal(t, tt.top, top, tt.gravity)
	}

	// 目标比原图大时不越界
	left, top := gravityOffset(50, 50, 100, 100, "")
	assert.Equal(t, 0, left)
	assert.Equal(t, 0, top)
}
