package utils

import (
	"math"
	"strings"
)

// ============================================================================
// Pure Utility Functions
// ============================================================================
//
// This file contains only domain-agnostic utility functions that can be
// used across any part of the application.
// ============================================================================

// BoundingBox represents face coordinates in video (frame) pixel space
type BoundingBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a rectangle in display space
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FitMode mirrors how a video surface places frames inside its box
type FitMode int

const (
	// FitContain scales uniformly to fit inside the display, letterboxing
	FitContain FitMode = iota
	// FitCover scales uniformly to fill the display, cropping overflow
	FitCover
	// FitFill stretches each axis independently
	FitFill
)

// GetFaceDimensions returns the width and height of a face bounding box
func GetFaceDimensions(box BoundingBox) (int, int) {
	width := box.XMax - box.XMin
	height := box.YMax - box.YMin
	return width, height
}

// IsFaceSizeValid checks if a face meets the minimum size requirement
func IsFaceSizeValid(box BoundingBox, minSize int) bool {
	width, height := GetFaceDimensions(box)
	return width >= minSize && height >= minSize
}

// BoxFromLocation converts a [top, right, bottom, left] location tuple to a
// bounding box. ok is false when the tuple is malformed.
func BoxFromLocation(loc []float64) (BoundingBox, bool) {
	if len(loc) != 4 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		YMin: int(loc[0]),
		XMax: int(loc[1]),
		YMax: int(loc[2]),
		XMin: int(loc[3]),
	}
	if box.XMax < box.XMin || box.YMax < box.YMin {
		return BoundingBox{}, false
	}
	return box, true
}

// ToRelative converts a pixel box to relative [x1, y1, x2, y2] coordinates
func ToRelative(box BoundingBox, frame Size) []float64 {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil
	}
	return []float64{
		float64(box.XMin) / float64(frame.Width),
		float64(box.YMin) / float64(frame.Height),
		float64(box.XMax) / float64(frame.Width),
		float64(box.YMax) / float64(frame.Height),
	}
}

// ScaleBox maps a box measured on a frame of size from onto a frame of
// size to. The box is returned unchanged when either size is empty.
func ScaleBox(box BoundingBox, from, to Size) BoundingBox {
	if from.Width <= 0 || from.Height <= 0 || to.Width <= 0 || to.Height <= 0 || from == to {
		return box
	}
	sx := float64(to.Width) / float64(from.Width)
	sy := float64(to.Height) / float64(from.Height)
	return BoundingBox{
		XMin: int(math.Round(float64(box.XMin) * sx)),
		YMin: int(math.Round(float64(box.YMin) * sy)),
		XMax: int(math.Round(float64(box.XMax) * sx)),
		YMax: int(math.Round(float64(box.YMax) * sy)),
	}
}

// MapToDisplay maps a box from video space to a display surface of the
// given size. When mirror is set the box is flipped horizontally to match a
// mirrored preview. ok is false when either size is empty.
func MapToDisplay(box BoundingBox, video, display Size, fit FitMode, mirror bool) (Rect, bool) {
	if video.Width <= 0 || video.Height <= 0 || display.Width <= 0 || display.Height <= 0 {
		return Rect{}, false
	}

	vw, vh := float64(video.Width), float64(video.Height)
	dw, dh := float64(display.Width), float64(display.Height)

	sx, sy := dw/vw, dh/vh
	switch fit {
	case FitContain:
		s := min(sx, sy)
		sx, sy = s, s
	case FitCover:
		s := max(sx, sy)
		sx, sy = s, s
	}
	offX := (dw - vw*sx) / 2
	offY := (dh - vh*sy) / 2

	w, h := GetFaceDimensions(box)
	x := float64(box.XMin)
	if mirror {
		x = vw - float64(box.XMax)
	}

	return Rect{
		X: offX + x*sx,
		Y: offY + float64(box.YMin)*sy,
		W: float64(w) * sx,
		H: float64(h) * sy,
	}, true
}

// DeduplicateNames removes duplicate and blank names, keeping first-seen order
func DeduplicateNames(names []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}
