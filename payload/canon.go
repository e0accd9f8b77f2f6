/*
NAME
  canon.go

DESCRIPTION
  canon.go canonicalizes a raw transcript string into the token stream
  the signature is bound to: whitespace split, lowercased, English
  number words folded to digits, non-alphanumeric characters stripped,
  empties dropped, with each surviving token's original character
  offset preserved.

LICENSE
  See LICENSE file in the project root.
*/

package payload

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Token is one canonicalized transcript word, with the character (rune)
// offset of its first character in the original (pre-canonicalization)
// string.
type Token struct {
	Text string
	Idx  int
}

var (
	dashes    = strings.NewReplacer("-", " ", "–", " ", "—", " ")
	wordRE    = regexp.MustCompile(`\S+`)
	nonAlnumRE = regexp.MustCompile(`[^a-z0-9]`)
)

// Canonicalize turns a raw transcript string into the token stream a
// signature transcript is bound to.
func Canonicalize(s string) []Token {
	s = dashes.Replace(s)
	raw := findWordsWithOffsets(s)

	out := make([]Token, 0, len(raw))
	for _, w := range raw {
		text := strings.ToLower(w.text)
		text = numberWordToDigits(text)
		text = nonAlnumRE.ReplaceAllString(text, "")
		if len(text) == 0 {
			continue
		}
		out = append(out, Token{Text: text, Idx: w.idx})
	}
	return out
}

type rawWord struct {
	text string
	idx  int
}

func findWordsWithOffsets(s string) []rawWord {
	locs := wordRE.FindAllStringIndex(s, -1)
	out := make([]rawWord, 0, len(locs))
	for _, loc := range locs {
		// Each dash rune was replaced by exactly one space, so rune offsets
		// here equal rune offsets in the original string.
		out = append(out, rawWord{text: s[loc[0]:loc[1]], idx: utf8.RuneCountInString(s[:loc[0]])})
	}
	return out
}

// numberWordToDigits maps a single English cardinal-number word (zero
// through twenty, the tens thirty through ninety, hundred, thousand) or
// ordinal word (first through twelfth) to its digit string; any token
// that isn't a recognized number word is returned unchanged. Words are
// not combined: "twenty three" (or "twenty-three", since dashes split
// words) yields "20" and "3".
func numberWordToDigits(word string) string {
	if v, ok := numberWords[word]; ok {
		return v
	}
	if v, ok := ordinalWords[word]; ok {
		return v
	}
	return word
}

var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20", "thirty": "30",
	"forty": "40", "fifty": "50", "sixty": "60", "seventy": "70",
	"eighty": "80", "ninety": "90", "hundred": "100", "thousand": "1000",
}

var ordinalWords = map[string]string{
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
	"sixth": "6", "seventh": "7", "eighth": "8", "ninth": "9", "tenth": "10",
	"eleventh": "11", "twelfth": "12",
}
