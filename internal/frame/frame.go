package frame

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/smegmarip/live-recognition/internal/settings"
)

// JPEG qualities for recognition payloads and saved captures
const (
	TickQuality    = 80
	CaptureQuality = 90
)

// Processing-mode width caps; zero keeps native resolution
var modeMaxWidth = map[string]int{
	settings.ModeSpeed:    640,
	settings.ModeBalanced: 960,
	settings.ModeAccuracy: 0,
}

// Capture draws src into an off-screen RGBA buffer at its native size,
// flipping horizontally when mirror is set
func Capture(src image.Image, mirror bool) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if !mirror {
		return dst
	}
	flipped := imaging.FlipH(dst)
	out := image.NewRGBA(flipped.Bounds())
	draw.Draw(out, out.Bounds(), flipped, flipped.Bounds().Min, draw.Src)
	return out
}

// Scale downsizes img for the given processing mode, keeping aspect ratio
func Scale(img image.Image, mode string) image.Image {
	maxWidth := modeMaxWidth[mode]
	if maxWidth == 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Linear)
}

// Thumbnail scales img to fit within w×h with bilinear filtering
func Thumbnail(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	scale := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	tw := max(1, int(float64(b.Dx())*scale))
	th := max(1, int(float64(b.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG writes img as JPEG with the given quality (1..100)
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// EncodeDataURI encodes img as a base64 JPEG data URI
func EncodeDataURI(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("data:image/jpeg;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := EncodeJPEG(enc, img, quality); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode base64: %w", err)
	}
	return buf.String(), nil
}
