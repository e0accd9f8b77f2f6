/*
NAME
  cicada-keygen

DESCRIPTION
  cicada-keygen generates a BLS12-381 min-sig keypair and writes the
  private and public keys to separate files.

LICENSE
  See LICENSE file in the project root.
*/

package main

import (
	"crypto/rand"
	"flag"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/enthdegree/cicada/internal/blssig"
)

const (
	logPath      = "cicada-keygen.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
)

func main() {
	privPath := flag.String("privkey", "bls_privkey.bin", "private key output path")
	pubPath := flag.String("pubkey", "bls_pubkey.bin", "public key output path")
	force := flag.Bool("force", false, "overwrite existing key files")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), true)

	if !*force {
		for _, p := range []string{*privPath, *pubPath} {
			if _, err := os.Stat(p); err == nil {
				log.Fatal("refusing to overwrite existing file, use -force", "path", p)
			}
		}
	}

	ikm := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, ikm); err != nil {
		log.Fatal("could not read random seed material", "error", err)
	}

	sk, err := blssig.KeyGen(ikm)
	if err != nil {
		log.Fatal("key generation failed", "error", err)
	}
	pk, err := blssig.PublicKey(sk)
	if err != nil {
		log.Fatal("public key derivation failed", "error", err)
	}

	if err := os.WriteFile(*privPath, sk, 0o600); err != nil {
		log.Fatal("could not write private key", "error", err)
	}
	if err := os.WriteFile(*pubPath, pk, 0o644); err != nil {
		log.Fatal("could not write public key", "error", err)
	}

	log.Info("wrote BLS keypair", "privkey", *privPath, "pubkey", *pubPath)
}
