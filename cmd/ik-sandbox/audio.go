package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate    = beep.SampleRate(44100)
	chimeDuration = 60 * time.Millisecond
	chimeBase     = 660.0
)

// chime plays a short tone when a chain reaches its target
// A nil chime is silent
type chime struct {
	sr beep.SampleRate
}

func newChime() (*chime, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &chime{sr: sampleRate}, nil
}

// play sounds the tone for the i-th chain, stepping up a fifth per chain
func (c *chime) play(i int) {
	if c == nil {
		return
	}
	freq := chimeBase
	for range i % 4 {
		freq *= 1.5
	}
	sine, err := generators.SineTone(c.sr, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(c.sr.N(chimeDuration), sine))
}

func (c *chime) close() {
	if c != nil {
		speaker.Close()
	}
}
