/*
NAME
  csv.go

DESCRIPTION
  csv.go reads and writes the CSV exchange format between the extract
  and verify commands: one row per recovered signed payload, with the
  header message escaped via \uXXXX for commas, quotes, and non-ASCII
  characters.

LICENSE
  See LICENSE file in the project root.
*/

package payload

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var csvHeader = []string{"frame_start_sam", "timestamp", "word_count", "header_message", "bls_signature_base64"}

// Record is one CSV row: a recovered frame plus the sample offset it
// was found at.
type Record struct {
	FrameStartSample int
	Frame            Frame
}

// escapeCSVField replaces every comma, double quote, backslash, and
// non-ASCII rune in s with its \uXXXX escape.
func escapeCSVField(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ',' || r == '"' || r == '\\' || r > 0x7F {
			fmt.Fprintf(&b, `\u%04x`, r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeCSVField is the exact inverse of escapeCSVField.
func unescapeCSVField(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+5 < len(s) && s[i+1] == 'u' {
			if code, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
				b.WriteRune(rune(code))
				i += 6
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// WriteCSV writes recs to w in the extract/verify exchange format.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "payload: write csv header")
	}
	for _, rec := range recs {
		row := []string{
			strconv.Itoa(rec.FrameStartSample),
			fmt.Sprintf("%010d", rec.Frame.Header.Timestamp),
			strconv.Itoa(int(rec.Frame.Header.WordCount)),
			escapeCSVField(rec.Frame.Header.Message),
			base64.StdEncoding.EncodeToString(rec.Frame.Signature),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "payload: write csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the extract/verify exchange format from r.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "payload: read csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	recs := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, errors.Errorf("payload: csv row has %d fields, want %d", len(row), len(csvHeader))
		}
		start, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrap(err, "payload: parse frame_start_sam")
		}
		ts, err := strconv.ParseUint(row[1], 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "payload: parse timestamp")
		}
		wc, err := strconv.ParseUint(row[2], 10, 8)
		if err != nil {
			return nil, errors.Wrap(err, "payload: parse word_count")
		}
		sig, err := base64.StdEncoding.DecodeString(row[4])
		if err != nil {
			return nil, errors.Wrap(err, "payload: decode bls_signature_base64")
		}
		recs = append(recs, Record{
			FrameStartSample: start,
			Frame: Frame{
				Header: Header{
					Timestamp: uint32(ts),
					WordCount: uint8(wc),
					Message:   unescapeCSVField(row[3]),
				},
				Signature: sig,
			},
		})
	}
	return recs, nil
}
