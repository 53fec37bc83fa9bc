package camera_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/internal/config"
	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

func TestConstraintsFrom(t *testing.T) {
	c := camera.ConstraintsFrom(settings.DefaultSettings().Camera)
	assert.Equal(t, camera.Constraints{Width: 1280, Height: 720, FrameRate: 30, FacingMode: settings.FacingUser}, c)
}

func TestSyntheticSource_Lifecycle(t *testing.T) {
	stream, err := camera.NewSyntheticSource().Acquire(context.Background(), camera.Constraints{Width: 320, Height: 240})
	require.NoError(t, err)

	assert.True(t, stream.ReadyState().Ready())
	assert.Equal(t, utils.Size{Width: 320, Height: 240}, stream.Size())
	frame, err := stream.Frame()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), frame.Bounds())

	assert.Equal(t, 1, camera.StopAll(stream))
	assert.Equal(t, 0, camera.StopAll(stream), "stopping twice is a no-op")
	assert.Equal(t, camera.HaveNothing, stream.ReadyState())
	_, err = stream.Frame()
	assert.ErrorIs(t, err, camera.ErrStreamEnded)
}

func TestSyntheticSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := camera.NewSyntheticSource().Acquire(ctx, camera.Constraints{})

	var camErr *camera.Error
	assert.ErrorAs(t, err, &camErr)
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestStillsSource_ReplaysDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 64, 48, color.White)
	writePNG(t, filepath.Join(dir, "b.png"), 64, 48, color.Black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	stream, err := camera.NewStillsSource(dir).Acquire(context.Background(), camera.Constraints{Width: 32, Height: 32})
	require.NoError(t, err)
	defer camera.StopAll(stream)

	frame, err := stream.Frame()
	require.NoError(t, err)
	assert.Equal(t, 32, frame.Bounds().Dx(), "frames larger than the constraints are fitted")
	assert.Equal(t, 24, frame.Bounds().Dy())
	assert.Equal(t, utils.Size{Width: 32, Height: 24}, stream.Size())
}

func TestStillsSource_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := camera.NewStillsSource(filepath.Join(t.TempDir(), "absent")).Acquire(context.Background(), camera.Constraints{})
		var nf *camera.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("no images", func(t *testing.T) {
		_, err := camera.NewStillsSource(t.TempDir()).Acquire(context.Background(), camera.Constraints{})
		var nf *camera.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("undecodable image", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644))
		_, err := camera.NewStillsSource(dir).Acquire(context.Background(), camera.Constraints{})
		var camErr *camera.Error
		assert.ErrorAs(t, err, &camErr)
	})
}

func TestApplyOrientation(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})

	tests := []struct {
		name        string
		orientation int
		width       int
		height      int
		redAt       image.Point
	}{
		{name: "normal", orientation: 1, width: 4, height: 2, redAt: image.Pt(0, 0)},
		{name: "mirrored", orientation: 2, width: 4, height: 2, redAt: image.Pt(3, 0)},
		{name: "upside down", orientation: 3, width: 4, height: 2, redAt: image.Pt(3, 1)},
		{name: "rotated right", orientation: 6, width: 2, height: 4, redAt: image.Pt(1, 0)},
		{name: "rotated left", orientation: 8, width: 2, height: 4, redAt: image.Pt(0, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := camera.ApplyOrientation(src, tt.orientation)
			assert.Equal(t, tt.width, out.Bounds().Dx())
			assert.Equal(t, tt.height, out.Bounds().Dy())
			r, _, _, _ := out.At(out.Bounds().Min.X+tt.redAt.X, out.Bounds().Min.Y+tt.redAt.Y).RGBA()
			assert.Equal(t, uint32(0xffff), r)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target any
	}{
		{name: "permission", err: fmt.Errorf("open: %w", fs.ErrPermission), target: new(*camera.AccessError)},
		{name: "missing", err: fmt.Errorf("open: %w", fs.ErrNotExist), target: new(*camera.NotFoundError)},
		{name: "other", err: errors.New("device busy"), target: new(*camera.Error)},
		{name: "already classified", err: &camera.AccessError{Device: "x"}, target: new(*camera.AccessError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorAs(t, camera.Classify("/dev/video0", tt.err), tt.target)
		})
	}
	assert.NoError(t, camera.Classify("/dev/video0", nil))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, camera.UserMessage(&camera.AccessError{}), "denied")
	assert.Contains(t, camera.UserMessage(&camera.NotFoundError{}), "No camera found")
	assert.Contains(t, camera.UserMessage(&camera.Error{Device: "d", Err: errors.New("busy")}), "busy")
}

func TestNewAcquirer(t *testing.T) {
	a, err := camera.NewAcquirer(config.CameraConfig{Source: config.SourceSynthetic})
	require.NoError(t, err)
	assert.IsType(t, &camera.SyntheticSource{}, a)

	a, err = camera.NewAcquirer(config.CameraConfig{Source: config.SourceStills, StillsDir: "/tmp"})
	require.NoError(t, err)
	assert.IsType(t, &camera.StillsSource{}, a)

	_, err = camera.NewAcquirer(config.CameraConfig{Source: "vhs"})
	assert.Error(t, err)
}
