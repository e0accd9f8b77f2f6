/*
NAME
  cicada-verify

DESCRIPTION
  cicada-verify checks each frame in a frames CSV (produced by
  cicada-extract) against a reference transcript, reporting which
  frames verify against some window of the transcript under the
  given BLS public key.

LICENSE
  See LICENSE file in the project root.
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/enthdegree/cicada/payload"
)

const (
	logPath      = "cicada-verify.log"
	logMaxSize   = 10
	logMaxBackup = 3
	logMaxAge    = 28
	logVerbosity = logging.Info
)

func main() {
	framesPath := flag.String("frames", "frames.csv", "input frames CSV path")
	transcriptPath := flag.String("transcript", "", "path to the reference transcript text file")
	pubPath := flag.String("pubkey", "bls_pubkey.bin", "BLS public key path")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), true)

	if *transcriptPath == "" {
		log.Fatal("a -transcript file path is required")
	}

	framesFile, err := os.Open(*framesPath)
	if err != nil {
		log.Fatal("could not open frames CSV", "error", err)
	}
	defer framesFile.Close()

	recs, err := payload.ReadCSV(framesFile)
	if err != nil {
		log.Fatal("could not read frames CSV", "error", err)
	}

	transcriptBytes, err := os.ReadFile(*transcriptPath)
	if err != nil {
		log.Fatal("could not read transcript file", "error", err)
	}
	pk, err := os.ReadFile(*pubPath)
	if err != nil {
		log.Fatal("could not read public key", "error", err)
	}

	toks := payload.Canonicalize(string(transcriptBytes))

	verified := 0
	for _, rec := range recs {
		idx, err := payload.Match(rec.Frame, toks, pk, log)
		if err != nil {
			log.Warn("match failed for frame", "start_sample", rec.FrameStartSample, "error", err)
			continue
		}
		if idx < 0 {
			fmt.Printf("frame at sample %d: NOT VERIFIED\n", rec.FrameStartSample)
			continue
		}
		verified++
		fmt.Printf("frame at sample %d: verified at token offset %d, header=%q timestamp=%d\n",
			rec.FrameStartSample, idx, rec.Frame.Header.Message, rec.Frame.Header.Timestamp)
	}

	log.Info("verification complete", "total", len(recs), "verified", verified)
}
