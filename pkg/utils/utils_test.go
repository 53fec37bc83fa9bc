package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smegmarip/live-recognition/pkg/utils"
)

func TestGetFaceDimensions(t *testing.T) {
	tests := []struct {
		name           string
		box            utils.BoundingBox
		expectedWidth  int
		expectedHeight int
	}{
		{
			name:           "Standard face box",
			box:            utils.BoundingBox{XMin: 100, YMin: 150, XMax: 300, YMax: 400},
			expectedWidth:  200,
			expectedHeight: 250,
		},
		{
			name:           "Zero-sized box (edge case)",
			box:            utils.BoundingBox{XMin: 100, YMin: 100, XMax: 100, YMax: 100},
			expectedWidth:  0,
			expectedHeight: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := utils.GetFaceDimensions(tt.box)
			assert.Equal(t, tt.expectedWidth, w)
			assert.Equal(t, tt.expectedHeight, h)
		})
	}
}

func TestIsFaceSizeValid(t *testing.T) {
	box := utils.BoundingBox{XMin: 0, YMin: 0, XMax: 64, YMax: 80}
	assert.True(t, utils.IsFaceSizeValid(box, 64))
	assert.False(t, utils.IsFaceSizeValid(box, 65))
}

func TestBoxFromLocation(t *testing.T) {
	box, ok := utils.BoxFromLocation([]float64{10, 200, 110, 100})
	assert.True(t, ok)
	assert.Equal(t, utils.BoundingBox{XMin: 100, YMin: 10, XMax: 200, YMax: 110}, box)

	_, ok = utils.BoxFromLocation([]float64{1, 2, 3})
	assert.False(t, ok)

	_, ok = utils.BoxFromLocation([]float64{100, 0, 10, 50})
	assert.False(t, ok, "inverted box is rejected")
}

func TestToRelative(t *testing.T) {
	rel := utils.ToRelative(utils.BoundingBox{XMin: 320, YMin: 180, XMax: 640, YMax: 360}, utils.Size{Width: 1280, Height: 720})
	assert.Equal(t, []float64{0.25, 0.25, 0.5, 0.5}, rel)
	assert.Nil(t, utils.ToRelative(utils.BoundingBox{}, utils.Size{}))
}

func TestMapToDisplay(t *testing.T) {
	box := utils.BoundingBox{XMin: 100, YMin: 100, XMax: 300, YMax: 200}
	video := utils.Size{Width: 1000, Height: 500}

	tests := []struct {
		name     string
		display  utils.Size
		fit      utils.FitMode
		mirror   bool
		expected utils.Rect
	}{
		{
			name:     "same size",
			display:  utils.Size{Width: 1000, Height: 500},
			fit:      utils.FitContain,
			expected: utils.Rect{X: 100, Y: 100, W: 200, H: 100},
		},
		{
			name:     "contain letterboxes vertically",
			display:  utils.Size{Width: 500, Height: 500},
			fit:      utils.FitContain,
			expected: utils.Rect{X: 50, Y: 175, W: 100, H: 50},
		},
		{
			name:     "cover crops horizontally",
			display:  utils.Size{Width: 500, Height: 500},
			fit:      utils.FitCover,
			expected: utils.Rect{X: -250 + 100, Y: 100, W: 200, H: 100},
		},
		{
			name:     "fill stretches each axis",
			display:  utils.Size{Width: 500, Height: 1000},
			fit:      utils.FitFill,
			expected: utils.Rect{X: 50, Y: 200, W: 100, H: 200},
		},
		{
			name:     "mirrored preview flips x",
			display:  utils.Size{Width: 1000, Height: 500},
			fit:      utils.FitContain,
			mirror:   true,
			expected: utils.Rect{X: 700, Y: 100, W: 200, H: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := utils.MapToDisplay(box, video, tt.display, tt.fit, tt.mirror)
			assert.True(t, ok)
			assert.InDelta(t, tt.expected.X, got.X, 1e-9)
			assert.InDelta(t, tt.expected.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.expected.W, got.W, 1e-9)
			assert.InDelta(t, tt.expected.H, got.H, 1e-9)
		})
	}

	_, ok := utils.MapToDisplay(box, utils.Size{}, utils.Size{Width: 1, Height: 1}, utils.FitContain, false)
	assert.False(t, ok)
}

func TestDeduplicateNames(t *testing.T) {
	got := utils.DeduplicateNames([]string{"Alice", "Bob", " Alice ", "", "Carol", "Bob"})
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, got)
	assert.Equal(t, []string{}, utils.DeduplicateNames(nil))
}

func TestScaleBox(t *testing.T) {
	tests := []struct {
		name     string
		box      utils.BoundingBox
		from, to utils.Size
		want     utils.BoundingBox
	}{
		{
			name: "upscale to native",
			box:  utils.BoundingBox{XMin: 100, YMin: 50, XMax: 200, YMax: 150},
			from: utils.Size{Width: 960, Height: 540},
			to:   utils.Size{Width: 1920, Height: 1080},
			want: utils.BoundingBox{XMin: 200, YMin: 100, XMax: 400, YMax: 300},
		},
		{
			name: "same size unchanged",
			box:  utils.BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4},
			from: utils.Size{Width: 640, Height: 480},
			to:   utils.Size{Width: 640, Height: 480},
			want: utils.BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4},
		},
		{
			name: "empty source unchanged",
			box:  utils.BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4},
			to:   utils.Size{Width: 640, Height: 480},
			want: utils.BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ScaleBox(tt.box, tt.from, tt.to))
		})
	}
}
