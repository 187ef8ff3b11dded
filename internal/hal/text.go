package hal

import (
	"bytes"
	"strings"
)

// CString returns the text of a NUL-terminated buffer.
func CString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// TrimNUL cuts s at its first NUL byte, which is where console text ends.
func TrimNUL(s string) string {
	s, _, _ = strings.Cut(s, "\x00")
	return s
}

// Terminate writes a NUL after the first n bytes of buf, clamping n so the
// terminator always fits. It returns the clamped length.
func Terminate(buf []byte, n int) int {
	if len(buf) == 0 {
		return 0
	}
	if n > len(buf)-1 {
		n = len(buf) - 1
	}
	if n < 0 {
		n = 0
	}
	buf[n] = 0
	return n
}
