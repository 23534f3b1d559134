package codec

import (
	"encoding/base64"
	"strings"
)

// Tags of binary formats written by older versions. They are decoded but never written.
const (
	ArrayBufferTag = "ArrayBuffer:"
	Uint8ArrayTag  = "Uint8Array:"
)

// decoder maps a tag to the function decoding the payload behind it
type decoder struct {
	tag    string
	decode func(string) ([]byte, error)
}

// decoders is checked in order by Decode
var decoders = []decoder{
	{tag: BufferTag, decode: decodeD64},
	{tag: ArrayBufferTag, decode: decodeLegacyBase64},
	{tag: Uint8ArrayTag, decode: decodeLegacyBase64},
}

// decodeLegacyBase64 decodes standard base64 like a browser's atob: ASCII whitespace
// is ignored and missing padding is tolerated.
func decodeLegacyBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}
