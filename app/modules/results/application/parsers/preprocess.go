package parsers

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Preprocess cleans raw report bytes before line splitting.
// It strips a UTF-8 BOM, converts CRLF and bare CR line endings to LF, turns tabs into
// spaces and applies NFKC so non-breaking spaces copied out of PDF viewers become plain spaces.
func Preprocess(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\t"), []byte(" "))

	return norm.NFKC.String(string(data))
}
