// Package speck3d implements the SPECK (Set Partitioned Embedded bloCK)
// bitplane coder for 3D (and, with a unit Z extent, 2D) coefficient
// volumes. It codes an already-transformed coefficient array into a
// progressive, embedded bitstream under either a fixed bit budget (BPP
// mode) or a fixed quantization bitplane (QZ mode); it does not perform the
// wavelet transform itself, nor does it frame its output into a container
// format — both are a caller's concern.
package speck3d

import (
	"math"

	"github.com/pkg/errors"

	"github.com/scivol/speck3d/internal/bitbuf"
	"github.com/scivol/speck3d/internal/coeffs"
	"github.com/scivol/speck3d/internal/driver"
	"github.com/scivol/speck3d/internal/sigmap"
)

// Dims is a coefficient volume's extent. Z == 1 degrades every 3D
// partitioning step to its 2D counterpart automatically; there's no
// separate 2D entry point.
type Dims struct{ X, Y, Z int }

func (d Dims) len() int { return d.X * d.Y * d.Z }

func (d Dims) valid() bool { return d.X > 0 && d.Y > 0 && d.Z > 0 }

// Mode selects how Encode decides when to stop coding: once a bit budget is
// spent (BPP) or once a fixed quantization bitplane is reached (QZ).
type Mode interface{ isMode() }

type bppMode struct{ bpp float64 }

func (bppMode) isMode() {}

type qzMode struct{ level int32 }

func (qzMode) isMode() {}

// BPP returns a Mode that stops coding once roughly bpp bits per
// coefficient have been written, rounded up to a byte boundary the way
// set_bit_budget does, enabling progressive rate control.
func BPP(bpp float64) Mode { return bppMode{bpp: bpp} }

// QZ returns a Mode that stops coding once the bitplane threshold has been
// halved down to 2^level, enabling fixed-distortion (rather than
// fixed-rate) coding. Padding the final byte with zero bits is a no-op on
// decode: see internal/bitbuf.Buffer.PadToByte.
func QZ(level int32) Mode { return qzMode{level: level} }

// bitBudgetFor computes the BPP mode's actual bit budget for a given
// coefficient count, rounded up to a whole byte, matching set_bit_budget.
func bitBudgetFor(bpp float64, coeffLen int) int {
	budget := int(math.Ceil(bpp * float64(coeffLen)))
	if mod := budget % 8; mod != 0 {
		budget += 8 - mod
	}
	return budget
}

// Options carries tunables that affect performance but never the bits a
// correct decoder reads back.
type Options struct {
	// SigmapThreshold is the LSPOld-fraction above which a precomputed
	// significance bitmap is (re)built each bitplane instead of comparing
	// coefficients directly. A negative value disables the optimization.
	// 0 (and so zero-value Options) uses sigmap.DefaultThreshold.
	SigmapThreshold float64
}

func (o *Options) sigmapThreshold() float64 {
	if o == nil {
		return sigmap.DefaultThreshold
	}
	if o.SigmapThreshold == 0 {
		return sigmap.DefaultThreshold
	}
	if o.SigmapThreshold < 0 {
		return 0
	}
	return o.SigmapThreshold
}

// Result is a completed encode: the packed bitstream plus the bitplane
// exponent (m in spec terms) a decoder needs to reconstruct thresholds.
// Container framing — storing dims, MaxBits, and the bit count alongside
// the stream — is left to the caller.
type Result struct {
	Bits    *bitbuf.Buffer
	MaxBits int32
}

var (
	// ErrInvalidParam is returned for dimensions, modes, or coefficient
	// slices that can't be coded.
	ErrInvalidParam = errors.New("speck3d: invalid parameter")
	// ErrWrongSize is returned by Decode in QZ mode when the bitstream's
	// bit count isn't a multiple of 8, which QZ-mode output always is (see
	// bitbuf.Buffer.PadToByte). BPP-mode decoding does not check it.
	ErrWrongSize = errors.New("speck3d: bit count is not a multiple of 8")
)

// Encode codes coeffs (one value per coordinate, row-major with X fastest
// and Z slowest) into a progressive bitstream under mode, returning the
// stream and the bitplane exponent a later Decode call needs.
func Encode(dims Dims, coeffsIn []float64, mode Mode, opts *Options) (*Result, error) {
	if !dims.valid() {
		return nil, errors.Wrap(ErrInvalidParam, "dims must have positive extents")
	}
	if len(coeffsIn) != dims.len() {
		return nil, errors.Wrapf(ErrInvalidParam, "got %d coefficients, want %d", len(coeffsIn), dims.len())
	}
	if mode == nil {
		return nil, errors.Wrap(ErrInvalidParam, "mode must not be nil")
	}

	buf := coeffs.New(coeffsIn, false)
	maxCoeff := buf.Max()

	var maxBits int32
	if maxCoeff > 0 {
		maxBits = int32(math.Floor(math.Log2(maxCoeff)))
	}

	var term driver.Termination
	switch m := mode.(type) {
	case bppMode:
		budget := bitBudgetFor(m.bpp, dims.len())
		if budget <= 0 || budget > dims.len()*64 {
			return nil, errors.Wrapf(ErrInvalidParam, "bit budget %d is zero or exceeds 64*N (%d)", budget, dims.len()*64)
		}
		term = driver.Termination{Budget: budget}
	case qzMode:
		term = driver.Termination{QZ: true, QZLevel: m.level}
	default:
		return nil, errors.Wrap(ErrInvalidParam, "unrecognized mode")
	}

	ddims := driver.Dims{X: dims.X, Y: dims.Y, Z: dims.Z}
	bits, err := driver.EncodeVolume(ddims, buf.C, buf.Sign, term, opts.sigmapThreshold(), maxBits)
	if err != nil {
		return nil, errors.Wrap(err, "encoding volume")
	}

	return &Result{Bits: bits, MaxBits: maxBits}, nil
}

// Decode reconstructs a coefficient array from a bitstream Encode produced.
// mode controls how many of the stream's bits are actually consumed: a
// smaller BPP budget than was used to encode yields a lower-fidelity,
// faster progressive reconstruction from the same stream; QZ mode always
// decodes every available bit.
func Decode(dims Dims, bits *bitbuf.Buffer, maxBits int32, mode Mode, opts *Options) ([]float64, error) {
	if !dims.valid() {
		return nil, errors.Wrap(ErrInvalidParam, "dims must have positive extents")
	}
	if bits == nil {
		return nil, errors.Wrap(ErrInvalidParam, "bits must not be nil")
	}
	if mode == nil {
		return nil, errors.Wrap(ErrInvalidParam, "mode must not be nil")
	}
	if _, ok := mode.(qzMode); ok && bits.Len()%8 != 0 {
		return nil, errors.Wrapf(ErrWrongSize, "got %d bits", bits.Len())
	}

	budget := bits.Len()
	if b, ok := mode.(bppMode); ok {
		want := bitBudgetFor(b.bpp, dims.len())
		if want < budget {
			budget = want
		}
	}

	reader := bitbuf.NewReader(bits.Bytes(), bits.Len(), budget)
	ddims := driver.Dims{X: dims.X, Y: dims.Y, Z: dims.Z}

	out, err := driver.DecodeVolume(ddims, reader, maxBits)
	if err != nil {
		return nil, errors.Wrap(err, "decoding volume")
	}
	return out, nil
}
