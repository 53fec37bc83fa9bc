package alert

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneFor(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		volume int
		want   Tone
		ok     bool
	}{
		{
			name:   "recognition rises",
			kind:   KindRecognition,
			volume: 50,
			want:   Tone{Kind: KindRecognition, First: 800, Second: 1000, Switch: 100 * time.Millisecond, Length: ToneLength, Gain: 0.5},
			ok:     true,
		},
		{
			name:   "unknown falls",
			kind:   KindUnknown,
			volume: 100,
			want:   Tone{Kind: KindUnknown, First: 400, Second: 300, Switch: 200 * time.Millisecond, Length: ToneLength, Gain: 1},
			ok:     true,
		},
		{
			name:   "volume clamped high",
			kind:   KindUnknown,
			volume: 250,
			want:   Tone{Kind: KindUnknown, First: 400, Second: 300, Switch: 200 * time.Millisecond, Length: ToneLength, Gain: 1},
			ok:     true,
		},
		{
			name:   "volume clamped low",
			kind:   KindRecognition,
			volume: -5,
			want:   Tone{Kind: KindRecognition, First: 800, Second: 1000, Switch: 100 * time.Millisecond, Length: ToneLength, Gain: 0},
			ok:     true,
		},
		{
			name: "unknown kind",
			kind: Kind("siren"),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToneFor(tt.kind, tt.volume)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesize(t *testing.T) {
	tone, ok := ToneFor(KindRecognition, 100)
	require.True(t, ok)

	samples := Synthesize(tone, SampleRate)
	assert.Len(t, samples, SampleRate*3/10)
	assert.Equal(t, int16(0), samples[0], "fade-in starts silent")
	assert.Equal(t, int16(0), samples[len(samples)-1], "fade-out ends silent")

	var peak int16
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	assert.Greater(t, peak, int16(20000))
}

func TestSynthesize_Silent(t *testing.T) {
	tone, _ := ToneFor(KindUnknown, 0)
	for _, s := range Synthesize(tone, 8000) {
		require.Equal(t, int16(0), s)
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32767}
	wav := EncodeWAV(samples, 8000)

	require.Len(t, wav, 44+len(samples)*2)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	le := binary.LittleEndian
	assert.Equal(t, uint32(36+8), le.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), le.Uint16(wav[20:22]))
	assert.Equal(t, uint16(1), le.Uint16(wav[22:24]))
	assert.Equal(t, uint32(8000), le.Uint32(wav[24:28]))
	assert.Equal(t, uint32(16000), le.Uint32(wav[28:32]))
	assert.Equal(t, uint16(16), le.Uint16(wav[34:36]))
	assert.Equal(t, uint32(8), le.Uint32(wav[40:44]))
	assert.Equal(t, int16(-100), int16(le.Uint16(wav[48:50])))
}
