package core

// decode.go turns fetched bytes into text the CSV parser can trust.
//
// Input must be UTF-8. A leading byte order mark, which spreadsheet exports
// often carry, is dropped so it does not glue itself to the first header name
// ("\ufeffAge"). Any invalid sequence aborts validation: rewriting bytes would
// corrupt the raw cells echoed in the rejects report.

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodingError reports input that is not valid UTF-8.
type EncodingError struct {
	Line   int   // 1-based line of the first invalid byte
	Offset int64 // byte offset of the first invalid byte, after BOM removal
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid utf-8 on line %d (byte offset %d)", e.Line, e.Offset)
}

// DecodeText strips a leading UTF-8 BOM and verifies the remainder is valid
// UTF-8. The returned slice aliases data.
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return nil, &EncodingError{
				Line:   bytes.Count(data[:i], []byte("\n")) + 1,
				Offset: int64(i),
			}
		}
		i += size
	}
	return data, nil
}
