/*
NAME
  audiocodec.go

DESCRIPTION
  audiocodec.go converts between WAV files and mono float32 sample
  slices, the sample representation the fsk and modem packages operate
  on.

LICENSE
  See LICENSE file in the project root.
*/

// Package audiocodec converts between WAV audio and the mono float32
// sample buffers the acoustic link operates on.
package audiocodec

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const wavFormat = 1 // PCM, per the go-audio/wav encoder's audioFormat argument.

// ReadMono decodes a WAV stream to mono float32 samples in [-1, 1],
// downmixing multi-channel audio by averaging channels.
func ReadMono(r io.Reader) ([]float32, float64, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("audiocodec: not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.Wrap(err, "audiocodec: read PCM buffer")
	}

	fbuf := buf.AsFloatBuffer()
	nc := fbuf.Format.NumChannels
	if nc <= 0 {
		nc = 1
	}
	// AsFloatBuffer keeps the integer PCM values; scale them to [-1, 1].
	scale := 1.0
	if buf.SourceBitDepth > 0 {
		scale = float64(int64(1) << uint(buf.SourceBitDepth-1))
	}
	n := len(fbuf.Data) / nc
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < nc; ch++ {
			sum += fbuf.Data[i*nc+ch]
		}
		out[i] = float32(sum / float64(nc) / scale)
	}
	return out, float64(fbuf.Format.SampleRate), nil
}

// WriteMono encodes mono float32 samples in [-1, 1] to a WAV stream at
// the given sample rate and bit depth.
func WriteMono(w io.WriteSeeker, samples []float32, sampleRate, bitDepth int) error {
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, wavFormat)

	maxVal := float64(int64(1)<<uint(bitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s) * maxVal
		if v > maxVal {
			v = maxVal
		} else if v < -maxVal-1 {
			v = -maxVal - 1
		}
		data[i] = int(v)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "audiocodec: write PCM buffer")
	}
	return errors.Wrap(enc.Close(), "audiocodec: close WAV encoder")
}
