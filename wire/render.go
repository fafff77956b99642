package wire

import (
	"bytes"
	"strconv"
)

// RenderRequest encodes a raw request (command name plus arguments, each
// already a byte string) as a RESP2 multi-bulk array.
func RenderRequest(args [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('*')
	buf.WriteString(strconv.Itoa(len(args)))
	buf.WriteString("\r\n")
	for _, a := range args {
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(len(a)))
		buf.WriteString("\r\n")
		buf.Write(a)
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}
