// Package encoding normalizes hand-edited ledger files to UTF-8 before they are decoded.
package encoding

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

type bom struct {
	mark    []byte
	decoder func() *xencoding.Decoder
}

// UTF-8 is stripped; UTF-16 marks are left for the decoder to consume.
var boms = []bom{
	{mark: []byte{0xEF, 0xBB, 0xBF}},
	{mark: []byte{0xFF, 0xFE}, decoder: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder},
	{mark: []byte{0xFE, 0xFF}, decoder: unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder},
}

// Legacy charsets reported by chardet that admins' editors are known to produce.
var legacyCharsets = map[string]*charmap.Charmap{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-2":   charmap.ISO8859_2,
	"windows-1250": charmap.Windows1250,
}

// NewUTF8Reader returns a reader that yields r's content as UTF-8.
// A byte order mark wins; valid UTF-8 passes through; otherwise chardet picks
// a legacy charset, falling back to Windows-1250.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(head, b.mark) {
			continue
		}

		if b.decoder == nil {
			_, _ = br.Discard(len(b.mark))
			return br, nil
		}

		return transform.NewReader(br, b.decoder()), nil
	}

	sample := head
	if len(head) == sniffSize {
		sample = trimPartialRune(head)
	}

	if utf8.Valid(sample) {
		return br, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if res.Charset == "UTF-8" {
			return br, nil
		}

		if cm, ok := legacyCharsets[res.Charset]; ok {
			return transform.NewReader(br, cm.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1250.NewDecoder()), nil
}

// trimPartialRune drops a multi-byte rune cut off by the end of a sniffed
// prefix, so a split character is not mistaken for invalid UTF-8.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}

		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}

		break
	}

	return b
}

// DecodeJSON normalizes r to UTF-8 and decodes a single JSON value into v.
func DecodeJSON(r io.Reader, v any) error {
	utf8r, err := NewUTF8Reader(r)
	if err != nil {
		return err
	}

	if err := json.NewDecoder(utf8r).Decode(v); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}

	return nil
}
