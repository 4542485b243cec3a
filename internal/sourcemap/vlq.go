// Package sourcemap maps generated C back to the tape program it came from.
//
// It implements the Source Map v3 format (https://sourcemaps.info/spec.html)
// on top of a LineIndex that works in character offsets, the unit node
// spans are recorded in.
package sourcemap

import (
	"errors"
	"strings"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i, c := range base64Alphabet {
		base64Values[c] = int8(i)
	}
}

const (
	vlqShift    = 5
	vlqMask     = 1<<vlqShift - 1
	vlqContinue = 1 << vlqShift
)

var (
	errVLQTruncated = errors.New("truncated VLQ value")
	errVLQInvalid   = errors.New("invalid VLQ digit")
)

// AppendVLQ writes value to buf as a base64 VLQ. The sign is stored in the
// lowest bit.
func AppendVLQ(buf *strings.Builder, value int) {
	var v uint64
	if value < 0 {
		v = uint64(-value)<<1 | 1
	} else {
		v = uint64(value) << 1
	}

	for {
		digit := v & vlqMask
		v >>= vlqShift
		if v != 0 {
			digit |= vlqContinue
		}
		buf.WriteByte(base64Alphabet[digit])
		if v == 0 {
			return
		}
	}
}

// EncodeVLQ returns value as a base64 VLQ string.
func EncodeVLQ(value int) string {
	var buf strings.Builder
	AppendVLQ(&buf, value)
	return buf.String()
}

// DecodeVLQ reads one VLQ value from the front of input and returns it with
// the number of characters consumed.
func DecodeVLQ(input string) (value, consumed int, err error) {
	var v uint64
	var shift uint
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c >= 128 || base64Values[c] < 0 {
			return 0, 0, errVLQInvalid
		}
		digit := uint64(base64Values[c])
		v |= (digit & vlqMask) << shift
		shift += vlqShift

		if digit&vlqContinue == 0 {
			value = int(v >> 1)
			if v&1 != 0 {
				value = -value
			}
			return value, i + 1, nil
		}
	}
	return 0, 0, errVLQTruncated
}
