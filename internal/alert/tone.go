package alert

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Kind selects which alert tone plays
type Kind string

const (
	KindRecognition Kind = "recognition"
	KindUnknown     Kind = "unknown"
)

// SampleRate of synthesized tones
const SampleRate = 44100

// ToneLength is the total length of every alert tone
const ToneLength = 300 * time.Millisecond

// Tone is a two-step sine tone: First plays until Switch, then Second
// until Length
type Tone struct {
	Kind   Kind
	First  float64
	Second float64
	Switch time.Duration
	Length time.Duration
	Gain   float64
}

// ToneFor returns the tone for kind at a 0..100 volume; ok is false for
// unknown kinds
func ToneFor(kind Kind, volume int) (Tone, bool) {
	gain := math.Min(1, math.Max(0, float64(volume)/100))
	switch kind {
	case KindRecognition:
		return Tone{Kind: kind, First: 800, Second: 1000, Switch: 100 * time.Millisecond, Length: ToneLength, Gain: gain}, true
	case KindUnknown:
		return Tone{Kind: kind, First: 400, Second: 300, Switch: 200 * time.Millisecond, Length: ToneLength, Gain: gain}, true
	}
	return Tone{}, false
}

// fade keeps the tone edges from clicking
const fade = 5 * time.Millisecond

// Synthesize renders t as 16-bit mono PCM. Phase is continuous across the
// frequency switch.
func Synthesize(t Tone, rate int) []int16 {
	n := int(t.Length.Seconds() * float64(rate))
	switchAt := int(t.Switch.Seconds() * float64(rate))
	fadeN := int(fade.Seconds() * float64(rate))
	amp := t.Gain * 0.8 * math.MaxInt16

	out := make([]int16, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		freq := t.First
		if i >= switchAt {
			freq = t.Second
		}
		env := 1.0
		if fadeN > 0 {
			if i < fadeN {
				env = float64(i) / float64(fadeN)
			} else if n-1-i < fadeN {
				env = float64(n-1-i) / float64(fadeN)
			}
		}
		out[i] = int16(math.Round(amp * env * math.Sin(phase)))
		phase += 2 * math.Pi * freq / float64(rate)
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}
	return out
}

// EncodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container
func EncodeWAV(samples []int16, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1)) // PCM
	_ = binary.Write(&buf, le, uint16(channels))
	_ = binary.Write(&buf, le, uint32(rate))
	_ = binary.Write(&buf, le, uint32(rate*channels*bitsPerSample/8))
	_ = binary.Write(&buf, le, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, le, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, le, uint32(dataLen))
	_ = binary.Write(&buf, le, samples)
	return buf.Bytes()
}
