package cryptoutils

import "crypto/subtle"

// ConstantTimeEq compares two byte buffers in time independent of their
// contents. Buffers of different lengths compare unequal immediately; the
// lengths themselves are not secret anywhere in the boundary protocol.
func ConstantTimeEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ConstantTimeSelect returns ifTrue when v is true and ifFalse otherwise,
// without branching on v. Both inputs must be the same length; the result is
// a fresh slice.
func ConstantTimeSelect(v bool, ifTrue, ifFalse []byte) []byte {
	if len(ifTrue) != len(ifFalse) {
		panic("cryptoutils: ConstantTimeSelect length mismatch")
	}
	sel := subtle.ConstantTimeByteEq(boolToByte(v), 1)
	out := make([]byte, len(ifTrue))
	for i := range out {
		out[i] = byte(subtle.ConstantTimeSelect(sel, int(ifTrue[i]), int(ifFalse[i])))
	}
	return out
}

// ConstantTimeByteSelect selects between two bytes without branching.
func ConstantTimeByteSelect(v bool, ifTrue, ifFalse byte) byte {
	return byte(subtle.ConstantTimeSelect(subtle.ConstantTimeByteEq(boolToByte(v), 1), int(ifTrue), int(ifFalse)))
}

func boolToByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
