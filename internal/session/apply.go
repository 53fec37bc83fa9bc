package session

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/recognition"
	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// permissionTimeout bounds an out-of-band notification permission request
const permissionTimeout = 30 * time.Second

// applySettings reacts to a committed settings change. A load applies the
// display state wholesale; every other origin applies only the effects of
// the fields that changed.
func (c *Controller) applySettings(ch settings.Change) {
	next := ch.Next
	loaded := ch.Origin == settings.OriginLoad

	if loaded || ch.Has(settings.EffectDebug) {
		c.applyLogLevel(next.Advanced.DebugMode)
	}
	if loaded || ch.Has(settings.EffectHistory) {
		c.history.SetMax(next.Display.HistoryMaxCount)
	}

	c.mu.Lock()
	if loaded || ch.Has(settings.EffectTheme|settings.EffectMonitor) {
		c.display = c.displayFrom(next)
	}
	if ch.Has(settings.EffectLoopTiming) {
		c.restartLoopLocked(next.Recognition.PollInterval())
	}
	if ch.Has(settings.EffectCamera) && c.status == StatusActive {
		log.Infof("Camera settings changed, they apply on the next start")
	}
	display := c.display
	c.mu.Unlock()

	if next.Alerts.DesktopNotificationsEnabled && (loaded || ch.Has(settings.EffectNotifyPermission)) {
		c.requestNotifyPermission()
	}
	if len(ch.Changed) > 0 || loaded {
		c.emit(Event{Type: EventSettings, Display: &display})
	}
}

func (c *Controller) applyLogLevel(debug bool) {
	level := c.baseLevel
	if debug && level < log.DebugLevel {
		level = log.DebugLevel
	}
	if log.GetLevel() != level {
		log.SetLevel(level)
		log.Infof("Log level set to %s", level)
	}
}

// requestNotifyPermission asks for desktop notification permission when it
// is still undetermined. A denial turns the setting back off.
func (c *Controller) requestNotifyPermission() {
	n := c.alerts.Notifier()
	if n == nil || n.Permission() != alert.PermissionUndetermined {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warnf("Notification permission request panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), permissionTimeout)
		defer cancel()

		perm, err := n.RequestPermission(ctx)
		if err != nil {
			log.Debugf("Notification permission request: %v", err)
		}
		log.Infof("Desktop notification permission %s", perm)
		if perm != alert.PermissionDenied {
			return
		}
		if _, err := c.store.SaveRaw(map[string]any{
			"alerts": map[string]any{"desktopNotificationsEnabled": false},
		}); err != nil {
			log.Warnf("Failed to persist disabled desktop notifications: %v", err)
		}
		c.toasts.Warning("Desktop notifications are blocked, the setting has been turned off")
	}()
}

// ============================================================================
// Display
// ============================================================================

// DisplayState is what monitor surfaces should show, resolved from settings
type DisplayState struct {
	Theme           string `json:"theme"`
	ThemePreference string `json:"themePreference"`
	ShowFPS         bool   `json:"showFPS"`
	ShowBoxes       bool   `json:"showBoundingBoxes"`
	ShowConfidence  bool   `json:"showConfidence"`
	ShowHistory     bool   `json:"showHistory"`
	Mirror          bool   `json:"mirror"`
}

func (c *Controller) displayFrom(s settings.Settings) DisplayState {
	theme := s.Display.ThemePreference
	if theme == settings.ThemeAuto {
		theme = settings.ThemeLight
		if c.dark() {
			theme = settings.ThemeDark
		}
	}
	return DisplayState{
		Theme:           theme,
		ThemePreference: s.Display.ThemePreference,
		ShowFPS:         s.Display.ShowFPS,
		ShowBoxes:       s.Display.ShowBoundingBoxes,
		ShowConfidence:  s.Display.ShowConfidence,
		ShowHistory:     s.Display.ShowHistory,
		Mirror:          s.Camera.Mirror,
	}
}

// Display returns the current display state
func (c *Controller) Display() DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// DisplayBox is one match box placed on a display surface
type DisplayBox struct {
	Rect utils.Rect `json:"rect"`
	// Relative is the box as [x1, y1, x2, y2] fractions of the video frame
	Relative   []float64 `json:"relative"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Label      string    `json:"label"`
	// Known is set for named matches at or above the confidence threshold
	Known bool `json:"known"`
}

// MapBoxes places the located matches of result on a display surface.
// Nothing is returned when bounding boxes are hidden or the session has no
// video size.
func (c *Controller) MapBoxes(result recognition.Result, display utils.Size, fit utils.FitMode) []DisplayBox {
	c.mu.Lock()
	video := c.videoSize
	state := c.display
	c.mu.Unlock()

	boxes := []DisplayBox{}
	if !state.ShowBoxes {
		return boxes
	}
	threshold := c.store.Current().Recognition.ConfidenceThreshold
	for _, m := range result.Matches {
		if m.Box == nil {
			continue
		}
		rect, ok := utils.MapToDisplay(*m.Box, video, display, fit, state.Mirror)
		if !ok {
			continue
		}
		label := m.Name
		if state.ShowConfidence {
			label = fmt.Sprintf("%s (%.0f%%)", m.Name, m.Confidence*100)
		}
		boxes = append(boxes, DisplayBox{
			Rect:       rect,
			Relative:   utils.ToRelative(*m.Box, video),
			Name:       m.Name,
			Confidence: m.Confidence,
			Label:      label,
			Known:      m.Name != recognition.UnknownName && m.Confidence >= threshold,
		})
	}
	return boxes
}
