// Package capture produces the raw evidence streams of a session:
// periodic screen frames, audio chunks and UI ticks. Producers only
// enqueue events; all orchestration state lives on the consumer side.
package capture

import (
	"context"
	"time"

	"github.com/joss/viva/internal/logging"
)

// Event is one input to the session event loop.
type Event interface {
	isEvent()
}

// AudioChunk carries one recorded audio chunk for transcription.
type AudioChunk struct {
	Seq  int
	Data []byte
}

// Frame carries one PNG screen capture for OCR.
type Frame struct {
	Seq   int
	Image []byte
}

// Tick is a UI clock pulse. It never mutates orchestration state.
type Tick struct {
	Elapsed time.Duration
}

func (AudioChunk) isEvent() {}
func (Frame) isEvent()      {}
func (Tick) isEvent()       {}

// FrameSource produces screen captures on demand.
type FrameSource interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// AudioSource produces audio chunks in order. Next returns io.EOF when
// the source is exhausted.
type AudioSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Config sets the producer cadence.
type Config struct {
	ChunkSec       int
	OCRIntervalSec int
	TickInterval   time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkSec <= 0 {
		c.ChunkSec = 15
	}
	if c.OCRIntervalSec <= 0 {
		c.OCRIntervalSec = 20
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Run drives the capture producers until the context is canceled. A
// nil source disables its stream. Enqueueing never blocks: when the
// consumer lags, events are dropped, not queued without bound.
func Run(ctx context.Context, cfg Config, frames FrameSource, audio AudioSource, events chan<- Event) {
	cfg = cfg.withDefaults()
	log := logging.New("capture")
	start := time.Now()

	var audioC, frameC <-chan time.Time
	if audio != nil {
		t := time.NewTicker(time.Duration(cfg.ChunkSec) * time.Second)
		defer t.Stop()
		audioC = t.C
	}
	if frames != nil {
		t := time.NewTicker(time.Duration(cfg.OCRIntervalSec) * time.Second)
		defer t.Stop()
		frameC = t.C
	}
	tick := time.NewTicker(cfg.TickInterval)
	defer tick.Stop()

	emit := func(ev Event) {
		select {
		case events <- ev:
		default:
			log.Debug("event_dropped", nil)
		}
	}

	audioSeq, frameSeq := 0, 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			emit(Tick{Elapsed: time.Since(start)})
		case <-audioC:
			data, err := audio.Next(ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				// Exhausted or failed source stops the audio stream.
				log.Warn("audio_source_stopped", nil, err)
				audioC = nil
				continue
			}
			if len(data) == 0 {
				continue
			}
			emit(AudioChunk{Seq: audioSeq, Data: data})
			audioSeq++
		case <-frameC:
			image, err := frames.Capture(ctx)
			if err != nil {
				log.Warn("frame_capture_failed", nil, err)
				continue
			}
			emit(Frame{Seq: frameSeq, Image: image})
			frameSeq++
		}
	}
}
