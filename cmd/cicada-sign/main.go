/*
NAME
  cicada-sign

DESCRIPTION
  cicada-sign reads a transcript from a text file, canonicalizes it,
  signs a window of it with a BLS private key, and writes a WAV file
  containing the modulated acoustic frame.

LICENSE
  See LICENSE file in the project root.
*/

package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/enthdegree/cicada/audiocodec"
	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/fsk"
	"github.com/enthdegree/cicada/modem"
	"github.com/enthdegree/cicada/payload"
)

const (
	logPath      = "cicada-sign.log"
	logMaxSize   = 10
	logMaxBackup = 3
	logMaxAge    = 28
	logVerbosity = logging.Info
)

func main() {
	transcriptPath := flag.String("transcript", "", "path to a text file containing the transcript to sign")
	privPath := flag.String("privkey", "bls_privkey.bin", "BLS private key path")
	pubPath := flag.String("pubkey", "bls_pubkey.bin", "BLS public key path")
	outPath := flag.String("out", "output.wav", "output WAV path")
	headerMsg := flag.String("header", "cicada", "11-byte ASCII header message")
	wordCount := flag.Int("words", 0, "number of tokens to sign, starting at -offset (0 = all)")
	offset := flag.Int("offset", 0, "token offset to start signing from")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), true)

	if *transcriptPath == "" {
		log.Fatal("a -transcript file path is required")
	}

	transcriptBytes, err := os.ReadFile(*transcriptPath)
	if err != nil {
		log.Fatal("could not read transcript file", "error", err)
	}
	sk, err := os.ReadFile(*privPath)
	if err != nil {
		log.Fatal("could not read private key", "error", err)
	}
	pk, err := os.ReadFile(*pubPath)
	if err != nil {
		log.Fatal("could not read public key", "error", err)
	}

	toks := payload.Canonicalize(string(transcriptBytes))
	if len(toks) == 0 {
		log.Fatal("transcript canonicalized to zero tokens")
	}
	n := *wordCount
	if n <= 0 || *offset+n > len(toks) {
		n = len(toks) - *offset
	}
	if *offset < 0 || *offset >= len(toks) || n <= 0 {
		log.Fatal("offset/word count out of range for transcript", "tokens", len(toks))
	}
	window := toks[*offset : *offset+n]

	header := payload.Header{
		Timestamp: uint32(time.Now().Unix()),
		WordCount: uint8(len(window)),
		Message:   *headerMsg,
	}
	frame, err := payload.Sign(header, window, sk, pk, log)
	if err != nil {
		log.Fatal("signing failed", "error", err)
	}

	cfg := config.Default()
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

	samples, err := m.EncodeFrame(frame.Bytes(log))
	if err != nil {
		log.Fatal("could not modulate frame", "error", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("could not create output WAV", "error", err)
	}
	defer out.Close()
	if err := audiocodec.WriteMono(out, samples, int(cfg.SampleRate), 16); err != nil {
		log.Fatal("could not write WAV", "error", err)
	}

	log.Info("wrote signed frame", "out", *outPath, "tokens", len(window))
}
