package bits

// ZigZagDecode maps a Rice-coded unsigned value back to its signed residual.
// This is the same mapping protocol buffers call ZigZag decoding: even values
// are non-negative, odd values are negative.
//
// Examples of encoded values on the left and decoded values on the right:
//
//	0 =>  0
//	1 => -1
//	2 =>  1
//	3 => -2
//	4 =>  2
//	5 => -3
//	6 =>  3
func ZigZagDecode(x uint64) int32 {
	return int32(x>>1) ^ -int32(x&1)
}

// ZigZagEncode maps a signed residual to its Rice-coded unsigned
// representation; the inverse of ZigZagDecode. Used by tests to construct
// synthetic Rice-coded fixtures.
func ZigZagEncode(x int32) uint64 {
	return uint64((x << 1) ^ (x >> 31))
}
