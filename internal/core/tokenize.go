package core

import "strings"

// Tokenize splits CSV text into rows of raw cells.
//
// Quoted fields may contain commas, newlines and doubled quotes. Carriage
// returns outside quotes are dropped so CRLF input behaves like LF. The
// scanner never fails: unbalanced quotes simply run to the end of input.
func Tokenize(text string) []RawRow {
	var (
		rows     []RawRow
		row      RawRow
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, field.String())
			field.Reset()
		case '\n':
			row = append(row, field.String())
			field.Reset()
			rows = append(rows, row)
			row = nil
		case '\r':
		default:
			field.WriteByte(c)
		}
	}

	// Flush a final row without a trailing newline
	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = append(rows, row)
	}

	return rows
}
