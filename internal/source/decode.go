// Package source provides the front ends that turn an upload, a local file
// or a spreadsheet share link into raw rows for the import pipeline.
package source

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts exported CSV bytes to a UTF-8 string.
//
// A UTF-8 byte order mark is dropped. Input that is not valid UTF-8 is
// decoded as Windows-1251, the default encoding of Russian Excel exports.
// The result is in NFC form so that composed and decomposed Cyrillic
// letters compare equal.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err == nil {
			data = decoded
		} else {
			data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
		}
	}

	return norm.NFC.String(string(data))
}
