package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate    = beep.SampleRate(44100)
	chimeFreq     = 880.0
	chimeDuration = 120 * time.Millisecond
)

// Chime is played whenever the snake eats
type Chime interface {
	Play()
}

// ChimeFunc adapts a function to the Chime interface
type ChimeFunc func()

func (f ChimeFunc) Play() { f() }

// silentChime is used when no audio device is available
type silentChime struct{}

func (silentChime) Play() {}

var speakerOnce sync.Once

// NewSpeakerChime opens the default audio device and returns a chime that plays
// a short decaying sine tone on it.
func NewSpeakerChime() (Chime, error) {
	var err error
	speakerOnce.Do(func() {
		err = speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
	})
	if err != nil {
		return nil, err
	}
	return &speakerChime{}, nil
}

type speakerChime struct{}

func (c *speakerChime) Play() {
	speaker.Play(newTone(chimeFreq, chimeDuration, sampleRate))
}

// tone is a sine wave with a linear fade out
type tone struct {
	freq     float64
	phase    float64
	position int
	duration int
	rate     beep.SampleRate
}

func newTone(freq float64, duration time.Duration, rate beep.SampleRate) *tone {
	return &tone{
		freq:     freq,
		duration: rate.N(duration),
		rate:     rate,
	}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.duration {
			return i, i > 0
		}

		envelope := 1 - float64(t.position)/float64(t.duration)
		val := 0.3 * envelope * math.Sin(2*math.Pi*t.phase)
		samples[i][0] = val
		samples[i][1] = val

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }
