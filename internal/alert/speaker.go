package alert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
)

// Speaker plays a tone. Implementations may block until playback ends.
type Speaker interface {
	Play(ctx context.Context, t Tone) error
}

// ExecSpeaker pipes a WAV rendering of the tone to an external player
type ExecSpeaker struct {
	Command string
	Args    []string
}

// players are tried in order by DetectSpeaker; each reads WAV from stdin
var players = []ExecSpeaker{
	{Command: "aplay", Args: []string{"-q", "-"}},
	{Command: "paplay", Args: []string{}},
	{Command: "play", Args: []string{"-q", "-t", "wav", "-"}},
}

func (e ExecSpeaker) Play(ctx context.Context, t Tone) error {
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdin = bytes.NewReader(EncodeWAV(Synthesize(t, SampleRate), SampleRate))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", e.Command, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// BeepSpeaker falls back to the system beeper. Only the first frequency
// of the tone is played.
type BeepSpeaker struct{}

func (BeepSpeaker) Play(ctx context.Context, t Tone) error {
	if t.Gain == 0 {
		return nil
	}
	return beeep.Beep(t.First, int(t.Length.Milliseconds()))
}

// NopSpeaker discards every tone
type NopSpeaker struct{}

func (NopSpeaker) Play(context.Context, Tone) error { return nil }

// DetectSpeaker returns the first available external player, falling back
// to the system beeper
func DetectSpeaker() Speaker {
	for _, p := range players {
		if path, err := exec.LookPath(p.Command); err == nil {
			log.Debugf("Audio alerts will use %s", path)
			return ExecSpeaker{Command: path, Args: p.Args}
		}
	}
	log.Debug("No audio player found, audio alerts will use the system beeper")
	return BeepSpeaker{}
}
