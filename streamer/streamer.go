/*
NAME
  streamer.go

DESCRIPTION
  streamer.go runs the three-task acoustic transmit pipeline: an audio
  source (drop-oldest under pressure), a sliding-window throttled
  transcriber, and a newest-wins transmitter that signs the most recent
  transcript window and writes a modulated frame to the audio sink.

LICENSE
  See LICENSE file in the project root.
*/

// Package streamer wires the audio source, transcriber, and transmitter
// into a cancellable producer/consumer pipeline.
package streamer

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/modem"
	"github.com/enthdegree/cicada/payload"
)

// AudioReader supplies successive chunks of mono float32 samples, e.g.
// from a microphone or a file being played back in real time.
type AudioReader interface {
	ReadChunk() ([]float32, error)
}

// Transcriber turns a window of audio into free text. Implementations
// typically call out to a local speech-to-text server.
type Transcriber interface {
	Transcribe(samples []float32, sampleRate float64) (string, error)
}

// Sink is where modulated frame samples are written, e.g. a speaker
// device or a WAV file.
type Sink interface {
	io.Writer
}

// Params configures one Streamer run.
type Params struct {
	SampleRate float64

	// AudioQueueLen bounds the audio chunk queue; once full, the oldest
	// queued chunk is dropped to admit the newest one.
	AudioQueueLen int

	// WindowSamples and OverlapSamples size the transcriber's sliding
	// window and the hop between successive decodes.
	WindowSamples  int
	OverlapSamples int
	DecodeInterval time.Duration

	HeaderMessage string
	PrivateKey    []byte
	PublicKey     []byte

	Logger config.Logger
}

// Streamer runs the audio-source / transcriber / transmitter pipeline
// until Stop is called.
type Streamer struct {
	params Params
	modem  *modem.Modem
	reader AudioReader
	trans  Transcriber
	sink   Sink

	stop    chan struct{}
	wg      sync.WaitGroup
	errc    chan error
	running bool

	mu          sync.Mutex
	latestToks  []payload.Token
	latestWords string
}

// New constructs a Streamer. m is the caller's configured Modem;
// reader/trans/sink are the pipeline's I/O edges.
func New(params Params, m *modem.Modem, reader AudioReader, trans Transcriber, sink Sink) *Streamer {
	return &Streamer{
		params: params,
		modem:  m,
		reader: reader,
		trans:  trans,
		sink:   sink,
		errc:   make(chan error, 8),
	}
}

// Errors returns the channel errors from any pipeline stage are
// reported on; callers should drain it while the streamer runs.
func (s *Streamer) Errors() <-chan error { return s.errc }

// Running reports whether the pipeline is active.
func (s *Streamer) Running() bool { return s.running }

// Start launches the three pipeline stages and returns immediately.
func (s *Streamer) Start() error {
	if s.running {
		return errors.New("streamer: already running")
	}
	s.stop = make(chan struct{})

	audioQueue := make(chan []float32, s.params.AudioQueueLen)

	s.wg.Add(3)
	go s.runAudioSource(audioQueue)
	go s.runTranscriber(audioQueue)
	go s.runTransmitter()

	s.running = true
	return nil
}

// Stop signals every stage to exit and waits for them to finish.
func (s *Streamer) Stop() {
	if !s.running {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.running = false
}

func (s *Streamer) logWarn(msg string, params ...interface{}) {
	if s.params.Logger != nil {
		s.params.Logger.Warn(msg, params...)
	}
}

func (s *Streamer) reportErr(err error) {
	select {
	case s.errc <- err:
	default:
	}
}

// runAudioSource pulls chunks from reader into audioQueue, dropping the
// oldest queued chunk under backpressure so the newest audio always has
// room.
func (s *Streamer) runAudioSource(audioQueue chan<- []float32) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		chunk, err := s.reader.ReadChunk()
		if err != nil {
			s.reportErr(errors.Wrap(err, "streamer: audio source"))
			return
		}

		select {
		case audioQueue <- chunk:
		default:
			select {
			case <-audioQueue:
			default:
			}
			select {
			case audioQueue <- chunk:
			default:
				s.logWarn("streamer: audio queue still full after dropping oldest chunk")
			}
		}
	}
}

// runTranscriber accumulates chunks into a sliding window, decodes on a
// throttled cadence, and publishes the latest canonicalized transcript.
func (s *Streamer) runTranscriber(audioQueue <-chan []float32) {
	defer s.wg.Done()

	var buf []float32
	var nextDecodeAt time.Time

	for {
		select {
		case <-s.stop:
			return
		case chunk, ok := <-audioQueue:
			if !ok {
				return
			}
			buf = append(buf, chunk...)
			if len(buf) > s.params.WindowSamples*4 {
				buf = buf[len(buf)-s.params.WindowSamples*4:]
			}
			if len(buf) < s.params.WindowSamples {
				continue
			}
			if time.Now().Before(nextDecodeAt) {
				continue
			}
			hop := s.params.WindowSamples - s.params.OverlapSamples
			if hop <= 0 {
				hop = s.params.WindowSamples
			}
			nextDecodeAt = time.Now().Add(time.Duration(float64(hop) / s.params.SampleRate * float64(time.Second)))

			window := buf[len(buf)-s.params.WindowSamples:]
			text, err := s.trans.Transcribe(window, s.params.SampleRate)
			if err != nil {
				s.reportErr(errors.Wrap(err, "streamer: transcribe"))
				continue
			}
			toks := payload.Canonicalize(text)
			if len(toks) == 0 {
				continue
			}
			s.mu.Lock()
			s.latestToks = toks
			s.latestWords = text
			s.mu.Unlock()
		}
	}
}

// runTransmitter signs the most recently published transcript window
// and writes one modulated frame to the sink, newest-wins: if a newer
// transcript arrives before a frame is sent, the older one is simply
// never transmitted.
func (s *Streamer) runTransmitter() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.params.DecodeInterval)
	defer ticker.Stop()

	var lastSent string
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			toks := s.latestToks
			words := s.latestWords
			s.mu.Unlock()

			if len(toks) == 0 || words == lastSent {
				continue
			}
			lastSent = words

			header := payload.Header{
				Timestamp: uint32(time.Now().Unix()),
				WordCount: uint8(len(toks)),
				Message:   s.params.HeaderMessage,
			}
			frame, err := payload.Sign(header, toks, s.params.PrivateKey, s.params.PublicKey, s.params.Logger)
			if err != nil {
				s.reportErr(errors.Wrap(err, "streamer: sign"))
				continue
			}

			samples, err := s.modem.EncodeFrame(frame.Bytes(s.params.Logger))
			if err != nil {
				s.reportErr(errors.Wrap(err, "streamer: encode frame"))
				continue
			}
			if err := writeFloat32(s.sink, samples); err != nil {
				s.reportErr(errors.Wrap(err, "streamer: write sink"))
			}
		}
	}
}

func writeFloat32(w io.Writer, samples []float32) error {
	buf := make([]byte, 4)
	for _, v := range samples {
		bits := math.Float32bits(v)
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
