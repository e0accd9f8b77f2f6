/*
NAME
  frame.go

DESCRIPTION
  frame.go lays out the 64-byte signed wire frame (timestamp, word
  count, header message, BLS signature) and binds it to a canonicalized
  transcript via the internal/blssig package.

LICENSE
  See LICENSE file in the project root.
*/

// Package payload implements the 64-byte signed wire frame and its
// binding to a canonicalized transcript token stream.
package payload

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/internal/blssig"
)

// Header is the unsigned portion of a frame.
type Header struct {
	Timestamp uint32
	WordCount uint8
	Message   string
}

// headerBytes returns the fixed-width header encoding:
// big-endian timestamp, word count, then the ASCII message right-padded
// with zero bytes to config.DefaultHeaderMessageChars width. A message
// longer than that is truncated with a warning.
func headerBytes(h Header, logger config.Logger) []byte {
	buf := make([]byte, 5+config.DefaultHeaderMessageChars)
	binary.BigEndian.PutUint32(buf[0:4], h.Timestamp)
	buf[4] = h.WordCount

	msg := []byte(h.Message)
	if len(msg) > config.DefaultHeaderMessageChars {
		config.WarnOnce(logger, new(bool), "payload: header message truncated",
			"have", len(msg), "want", config.DefaultHeaderMessageChars)
		msg = msg[:config.DefaultHeaderMessageChars]
	}
	copy(buf[5:], msg)
	return buf
}

// headerFromBytes parses the fixed-width header at the start of ch.
func headerFromBytes(ch []byte) (Header, error) {
	if len(ch) < 5+config.DefaultHeaderMessageChars {
		return Header{}, errors.New("payload: frame too short for a header")
	}
	ts := binary.BigEndian.Uint32(ch[0:4])
	wc := ch[4]
	msg := rstripZero(ch[5 : 5+config.DefaultHeaderMessageChars])
	return Header{Timestamp: ts, WordCount: wc, Message: string(msg)}, nil
}

func rstripZero(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// Frame is a fully assembled 64-byte signed wire frame.
type Frame struct {
	Header    Header
	Signature []byte // 48-byte compressed BLS12-381 G1 signature
}

// Bytes serializes f into the 64-byte wire form.
func (f Frame) Bytes(logger config.Logger) []byte {
	out := make([]byte, config.FrameBytes)
	copy(out, headerBytes(f.Header, logger))
	copy(out[5+config.DefaultHeaderMessageChars:], f.Signature)
	return out
}

// FrameFromBytes parses a 64-byte wire frame.
func FrameFromBytes(b []byte) (Frame, error) {
	if len(b) != config.FrameBytes {
		return Frame{}, errors.Errorf("payload: frame must be %d bytes, got %d", config.FrameBytes, len(b))
	}
	hdr, err := headerFromBytes(b)
	if err != nil {
		return Frame{}, err
	}
	sig := make([]byte, blssig.CompressedSignatureSize)
	copy(sig, b[5+config.DefaultHeaderMessageChars:])
	return Frame{Header: hdr, Signature: sig}, nil
}

// transcriptMessage lays out the signed message: header ∥ (token.text
// UTF-8 ∥ 0x00) for every token in toks.
func transcriptMessage(headerBytes []byte, toks []Token) []byte {
	msg := make([]byte, len(headerBytes), len(headerBytes)+len(toks)*8)
	copy(msg, headerBytes)
	for _, t := range toks {
		msg = append(msg, []byte(t.Text)...)
		msg = append(msg, 0)
	}
	return msg
}

// Sign builds a signed Frame binding header to the exact token sequence
// toks (already the caller's chosen window, with WordCount set to
// len(toks) by the caller).
func Sign(header Header, toks []Token, skBytes, pkBytes []byte, logger config.Logger) (Frame, error) {
	hb := headerBytes(header, logger)
	msg := transcriptMessage(hb, toks)
	sig, err := blssig.Sign(skBytes, pkBytes, msg)
	if err != nil {
		return Frame{}, errors.Wrap(err, "payload: sign")
	}
	return Frame{Header: header, Signature: sig}, nil
}

// Match slides a window of length f.Header.WordCount across toks,
// returning the first offset whose windowed transcript verifies against
// f's signature and pkBytes, or -1 if none does.
func Match(f Frame, toks []Token, pkBytes []byte, logger config.Logger) (int, error) {
	wc := int(f.Header.WordCount)
	if wc > len(toks) {
		return -1, nil
	}
	hb := headerBytes(f.Header, logger)
	for j := 0; j+wc <= len(toks); j++ {
		msg := transcriptMessage(hb, toks[j:j+wc])
		ok, err := blssig.Verify(pkBytes, msg, f.Signature)
		if err != nil {
			continue
		}
		if ok {
			return j, nil
		}
	}
	return -1, nil
}
