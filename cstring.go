//go:build darwin || linux

// C string helpers shared by the node marshaller and the event decoder.

package mpv

import (
	"strings"
	"unicode/utf8"
	"unsafe"
)

// cStrLen returns the length of a NUL-terminated C string.
func cStrLen(ptr uintptr) int {
	p := unsafe.Pointer(ptr)
	n := 0
	for *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(n))) != 0 {
		n++
	}
	return n
}

// goStringConst copies a C string the engine retains ownership of. The
// pointed-to memory is not released; it stays valid only for the duration of
// the call that produced it, which is why the copy is taken immediately.
func goStringConst(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := cStrLen(ptr)
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// takeString adopts a C string this layer now owns: the bytes are copied out,
// the allocation is released exactly once, and the copy is rejected if it is
// not valid UTF-8. The release happens on the failure path too, so a
// malformed string never leaks.
func takeString(ptr uintptr) (string, bool) {
	if ptr == 0 {
		return "", false
	}
	s := goStringConst(ptr)
	cFree(ptr)
	if !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

// cString allocates a NUL-terminated C copy of s. Fails if s contains an
// embedded NUL, which a C string cannot represent. The result is released
// with cFree.
func cString(s string) (uintptr, bool) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, false
	}
	p := cMalloc(uintptr(len(s)) + 1)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, true
}
