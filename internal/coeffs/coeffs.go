// Package coeffs holds the coefficient buffer a SPECK coder walks: the
// magnitudes being coded, their extracted signs, and optionally a copy of
// the original values for reporting end-to-end error once decoding is done.
// That copy is kept only when New is asked for it; Encode never asks, in
// either mode, and no tolerance check is made against it.
package coeffs

import "math"

// Buffer is the coefficient array a Driver partitions and codes. C holds
// magnitudes made non-negative by extract; Sign records which entries were
// originally negative. Original, when non-nil, is an untouched copy of the
// input kept around so a caller can compute Stats after a round trip.
type Buffer struct {
	C        []float64
	Sign     []bool
	Original []float64
}

// New copies src into a fresh Buffer and extracts signs in place, leaving
// src untouched. The returned Buffer's C holds |src[i]| and Sign[i] is true
// when src[i] was non-negative.
func New(src []float64, keepOriginal bool) *Buffer {
	b := &Buffer{
		C:    make([]float64, len(src)),
		Sign: make([]bool, len(src)),
	}
	copy(b.C, src)
	if keepOriginal {
		b.Original = make([]float64, len(src))
		copy(b.Original, src)
	}
	b.extract()
	return b
}

// extract makes every entry of C non-negative, recording the sign it removed,
// and returns the largest magnitude seen. Ported from make_coeff_positive.
func (b *Buffer) extract() float64 {
	if len(b.C) == 0 {
		return 0
	}
	max := math.Abs(b.C[0])
	for i, v := range b.C {
		if v < 0 {
			b.C[i] = -v
			b.Sign[i] = false
		} else {
			b.Sign[i] = true
		}
		if b.C[i] > max {
			max = b.C[i]
		}
	}
	return max
}

// Max returns the largest magnitude currently held in C.
func (b *Buffer) Max() float64 {
	max := 0.0
	for _, v := range b.C {
		if v > max {
			max = v
		}
	}
	return max
}

// Restore reconstructs signed values from C and Sign into dst, which must
// have the same length as C. It is the inverse of the sign extraction New
// performs on the way in.
func (b *Buffer) Restore(dst []float64) {
	for i, v := range b.C {
		if b.Sign[i] {
			dst[i] = v
		} else {
			dst[i] = -v
		}
	}
}

// kahanSum adds arr's elements with Kahan compensated summation, following
// speck_helper.cpp's kahan_summation, so that long reductions over many
// coefficients don't accumulate floating-point drift.
func kahanSum(arr []float64) float64 {
	var sum, c float64
	for _, v := range arr {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// Stats reports the RMSE, L-infinity, and PSNR (in dB) between a and b,
// which must be the same length. PSNR follows the same range-normalized
// definition as speck_helper.cpp's calc_stats: it uses the range of a
// (min to max) as the signal range.
func Stats(a, b []float64) (rmse, linf, psnr float64) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, 0, 0
	}

	sq := make([]float64, len(a))
	amin, amax := a[0], a[0]
	for i := range a {
		diff := math.Abs(a[i] - b[i])
		if diff > linf {
			linf = diff
		}
		sq[i] = diff * diff
		if a[i] < amin {
			amin = a[i]
		}
		if a[i] > amax {
			amax = a[i]
		}
	}

	avg := kahanSum(sq) / float64(len(a))
	rmse = math.Sqrt(avg)

	rangeSq := amax - amin
	rangeSq *= rangeSq
	if rangeSq == 0 {
		return rmse, linf, math.Inf(1)
	}
	psnr = -10.0 * math.Log10(avg/rangeSq)
	return rmse, linf, psnr
}
