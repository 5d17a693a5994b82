package delta

import (
	"unicode/utf16"
)

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if size := utf16.RuneLen(r); size > 0 {
			n += size
		} else {
			n++
		}
	}
	return n
}

// utf16Slice returns the code units [from, to) of s. A boundary that splits a
// surrogate pair yields U+FFFD for the broken half.
func utf16Slice(s string, from, to int) string {
	if from == 0 && to >= utf16Len(s) {
		return s
	}
	units := utf16.Encode([]rune(s))
	return string(utf16.Decode(units[from:to]))
}

// encodeUTF16 expects valid UTF-8; invalid bytes would decode to U+FFFD.
func encodeUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func decodeUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}
