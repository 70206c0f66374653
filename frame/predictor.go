package frame

import (
	"math/bits"

	"github.com/flacio/flac/internal/ferr"
)

// fixedCoeffs maps a fixed-predictor order to the polynomial coefficients
// FLAC defines for it:
//
//	x_0[n] = 0
//	x_1[n] = x[n-1]
//	x_2[n] = 2*x[n-1] - x[n-2]
//	x_3[n] = 3*x[n-1] - 3*x[n-2] + x[n-3]
//	x_4[n] = 4*x[n-1] - 6*x[n-2] + 4*x[n-3] - x[n-4]
var fixedCoeffs = [...][]int32{
	0: {},
	1: {1},
	2: {2, -1},
	3: {3, -3, 1},
	4: {4, -6, 4, -1},
}

// useWideAccumulator reports whether reconstructing an LPC subframe with the
// given effective sample depth, coefficient precision, and prediction order
// requires a 64-bit accumulator to avoid signed overflow.
func useWideAccumulator(bps, qlpPrecision uint, order int) bool {
	orderBits := 0
	if order > 1 {
		orderBits = bits.Len(uint(order - 1))
	}
	return bps+qlpPrecision+uint(orderBits) > 32
}

// reconstructLPC fills in samples[order:] in place, given order warmup
// samples already present at samples[:order] and residuals (one per
// remaining position) already present at samples[order:]. coeffs has length
// order; shift must be non-negative.
func reconstructLPC(samples []int32, order int, coeffs []int32, shift int32, bps, qlpPrecision uint) error {
	if shift < 0 {
		return ferr.New(ferr.Unparseable, 0, "negative LPC quantization shift")
	}
	if len(coeffs) != order {
		return ferr.New(ferr.Unparseable, 0, "LPC coefficient count (%d) does not match order (%d)", len(coeffs), order)
	}

	if useWideAccumulator(bps, qlpPrecision, order) {
		for i := order; i < len(samples); i++ {
			var acc int64
			for j, c := range coeffs {
				acc += int64(c) * int64(samples[i-j-1])
			}
			samples[i] += int32(acc >> uint(shift))
		}
		return nil
	}

	for i := order; i < len(samples); i++ {
		var acc int32
		for j, c := range coeffs {
			acc += c * samples[i-j-1]
		}
		samples[i] += acc >> uint(shift)
	}
	return nil
}

// reconstructFixed fills in samples[order:] in place using the fixed
// predictor of the given order (0..4); samples[order:] initially holds the
// decoded residuals.
func reconstructFixed(samples []int32, order int) error {
	if order < 0 || order > 4 {
		return ferr.New(ferr.Unparseable, 0, "invalid fixed predictor order %d", order)
	}
	coeffs := fixedCoeffs[order]
	for i := order; i < len(samples); i++ {
		var acc int64
		for j, c := range coeffs {
			acc += int64(c) * int64(samples[i-j-1])
		}
		samples[i] += int32(acc)
	}
	return nil
}
