// Package driver implements the bitplane coder at the heart of a SPECK
// volume codec: the initializer that seeds the set lists, and the sorting
// and refinement passes the bitplane loop runs once per threshold halving.
package driver

import (
	"errors"
	"math"

	pkgerrors "github.com/pkg/errors"

	"github.com/scivol/speck3d/internal/bitbuf"
	"github.com/scivol/speck3d/internal/partition"
	"github.com/scivol/speck3d/internal/sigmap"
)

// Dims is the volume's coefficient-grid extent, mirrored here rather than
// imported from the root package to keep this package free of a dependency
// cycle (the root package imports driver, not the reverse).
type Dims struct{ X, Y, Z int }

// Len returns the total coefficient count of the volume.
func (d Dims) Len() int { return d.X * d.Y * d.Z }

// maxBitplanes bounds the bitplane loop, matching the reference
// implementation's "we say that we run 128 iterations at most" comment:
// in practice the loop ends when the bit budget is spent or the QZ level is
// reached well before the cap, so this is a backstop, not a tuning knob.
const maxBitplanes = 128

// minChunk is the smallest chunk size parallelFor splits a range into (only
// the final remainder chunk can be shorter); ranges no longer than this run
// inline instead.
const minChunk = 4096

// debugChecks gates cheap invariant assertions (a set entering
// processSet must not already be marked Garbage; a set entering codeSet
// must not be a pixel) that are expensive enough, in aggregate across a
// whole bitplane loop, not to want them in production builds. No
// third-party assertion library appears anywhere in the example corpus,
// so this stays plain Go rather than reaching for one.
const debugChecks = false

// parallelForDefault adapts parallelFor to sigmap.ParallelFor's two-argument
// shape, fixing minChunk at the package default.
func parallelForDefault(n int, fn func(lo, hi int)) {
	parallelFor(n, minChunk, fn)
}

// errBudgetMet is the sentinel a pass returns when the bit budget has been
// exhausted mid-pass. It never escapes this package; EncodeVolume and
// DecodeVolume convert it to a clean loop exit.
var errBudgetMet = errors.New("driver: bit budget met")

// ErrInvalidParam is returned when a requested termination is incompatible
// with the volume being encoded (for example a QZ level above the volume's
// own maximum bitplane).
var ErrInvalidParam = pkgerrors.New("driver: invalid parameter")

// Termination selects how the bitplane loop ends: either once a fixed bit
// budget is spent (BPP-style, progressive rate control) or once a fixed
// quantization bitplane level is reached (QZ-style, fixed distortion).
type Termination struct {
	QZ      bool
	Budget  int   // bit budget; meaningful when !QZ
	QZLevel int32 // quantization termination level; meaningful when QZ
}

// linearIndex converts a set's origin into the coefficient buffer's linear
// row-major index (z-major, y-middle, x-minor), matching the reference
// implementation's start_z*dim_x*dim_y + start_y*dim_x + start_x.
func linearIndex(dims Dims, s partition.Set) uint64 {
	return uint64(s.StartZ)*uint64(dims.X)*uint64(dims.Y) + uint64(s.StartY)*uint64(dims.X) + uint64(s.StartX)
}

// EncodeVolume runs the full bitplane loop over c (already sign-extracted,
// non-negative magnitudes) and returns the packed significance/sign/
// refinement bitstream. c is mutated in place as coefficients are refined;
// callers that need the original values should keep their own copy.
func EncodeVolume(dims Dims, c []float64, sign []bool, term Termination, sigThreshold float64, maxBits int32) (*bitbuf.Buffer, error) {
	if term.QZ && term.QZLevel > maxBits {
		return nil, pkgerrors.Wrap(ErrInvalidParam, "QZ level above the volume's maximum bitplane")
	}

	coeffLen := dims.Len()
	lists, _ := initializeLists(dims)

	e := getEncoder()
	defer putEncoder(e)
	e.dims = dims
	e.c = c
	e.sign = sign
	e.lists = lists
	e.oracle = sigmap.NewOracle(dims.X, dims.Y)
	e.bits = bitbuf.NewBuffer(coeffLen)
	e.threshold = math.Pow(2, float64(maxBits))
	e.sigThreshold = sigThreshold
	e.qz = term.QZ
	e.budget = term.Budget

	currentQZLevel := maxBits
	for iter := 0; iter < maxBitplanes; iter++ {
		e.oracle.Rebuild(e.c, e.threshold, e.sigThreshold, len(e.lists.LSPOld), coeffLen, parallelForDefault)

		if err := e.sortingPass(); err != nil {
			if err == errBudgetMet {
				break
			}
			return nil, err
		}
		if err := e.refinementPass(); err != nil {
			if err == errBudgetMet {
				break
			}
			return nil, err
		}

		if term.QZ && currentQZLevel <= term.QZLevel {
			break
		}
		currentQZLevel--

		e.threshold *= 0.5
		e.lists.Clean()
	}

	if term.QZ {
		// Padded zero bits decode as a run of "insignificant" flags, a
		// deliberate no-op; see bitbuf.Buffer.PadToByte.
		e.bits.PadToByte()
	}

	return e.bits, nil
}

// DecodeVolume reconstructs the sign-restored coefficient array from a
// packed bitstream. reader's budget controls how many bits are consumed,
// enabling progressive (partial-budget) reconstruction from the same
// stream a full decode would read further into.
func DecodeVolume(dims Dims, reader *bitbuf.Reader, maxBits int32) ([]float64, error) {
	coeffLen := dims.Len()
	lists, _ := initializeLists(dims)

	d := getDecoder()
	defer putDecoder(d)
	d.dims = dims
	d.c = make([]float64, coeffLen)
	d.sign = make([]bool, coeffLen)
	d.lists = lists
	d.reader = reader
	d.threshold = math.Pow(2, float64(maxBits))
	for i := range d.sign {
		d.sign[i] = true
	}

	for iter := 0; iter < maxBitplanes; iter++ {
		if err := d.sortingPass(); err != nil {
			if err == errBudgetMet {
				break
			}
			return nil, err
		}
		if err := d.refinementPass(); err != nil {
			if err == errBudgetMet {
				break
			}
			return nil, err
		}

		d.threshold *= 0.5
		d.lists.Clean()
	}

	// If the loop above aborted before every newly significant pixel this
	// bitplane was assigned its refinement value, finish them here.
	oneHalfT := d.threshold * 1.5
	for _, idx := range d.lists.LSPNew {
		d.c[idx] = oneHalfT
	}

	out := make([]float64, coeffLen)
	for i, v := range d.c {
		if d.sign[i] {
			out[i] = v
		} else {
			out[i] = -v
		}
	}
	return out, nil
}
