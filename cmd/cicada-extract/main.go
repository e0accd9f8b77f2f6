/*
NAME
  cicada-extract

DESCRIPTION
  cicada-extract demodulates every acoustic frame found in a WAV
  recording and writes them to a CSV file, one row per frame.

LICENSE
  See LICENSE file in the project root.
*/

package main

import (
	"flag"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/enthdegree/cicada/audiocodec"
	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/fsk"
	"github.com/enthdegree/cicada/modem"
	"github.com/enthdegree/cicada/payload"
)

const (
	logPath      = "cicada-extract.log"
	logMaxSize   = 10
	logMaxBackup = 3
	logMaxAge    = 28
	logVerbosity = logging.Info
)

func main() {
	inPath := flag.String("in", "output.wav", "input WAV path")
	outPath := flag.String("out", "frames.csv", "output frames CSV path")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), true)

	in, err := os.Open(*inPath)
	if err != nil {
		log.Fatal("could not open input WAV", "error", err)
	}
	defer in.Close()

	samples, sampleRate, err := audiocodec.ReadMono(in)
	if err != nil {
		log.Fatal("could not read WAV", "error", err)
	}

	cfg := config.Default()
	if sampleRate != cfg.SampleRate {
		log.Fatal("WAV sample rate does not match the waveform's sample rate", "wav", sampleRate, "want", cfg.SampleRate)
	}
	cfg.Logger = log
	wf, err := fsk.New(cfg)
	if err != nil {
		log.Fatal("could not construct waveform", "error", err)
	}
	demod := fsk.NewDemodulator(wf, cfg)
	m, err := modem.New(cfg, wf, demod)
	if err != nil {
		log.Fatal("could not construct modem", "error", err)
	}

	decoded, err := m.DecodeSamples(samples)
	if err != nil {
		log.Fatal("frame search/decode failed", "error", err)
	}
	log.Info("frame search complete", "frames", len(decoded))

	var recs []payload.Record
	for _, d := range decoded {
		// The decoded payload is data_bits_per_frame bits packed to whole
		// bytes, which can run past the 64-byte frame; the excess is padding.
		b := d.Bytes
		if len(b) > config.FrameBytes {
			b = b[:config.FrameBytes]
		}
		f, err := payload.FrameFromBytes(b)
		if err != nil {
			log.Warn("skipping frame with malformed layout", "start_sample", d.StartSample, "error", err)
			continue
		}
		recs = append(recs, payload.Record{FrameStartSample: d.StartSample, Frame: f})
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("could not create output CSV", "error", err)
	}
	defer out.Close()
	if err := payload.WriteCSV(out, recs); err != nil {
		log.Fatal("could not write CSV", "error", err)
	}

	log.Info("wrote frames CSV", "out", *outPath, "rows", len(recs))
}
