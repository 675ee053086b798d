// Package sigmap implements the significance oracle a SPECK sorting pass
// consults to decide whether a pixel or set is significant against the
// current bitplane threshold, either by direct comparison against the
// coefficient buffer or, once enough of the volume has gone significant, by
// consulting a precomputed whole-volume bitmap built once per bitplane.
package sigmap

import "github.com/scivol/speck3d/internal/partition"

// DefaultThreshold is the fraction of LSPOld (coefficients already known
// significant) above which building the bitmap pays for itself: fewer,
// larger random-access reads beat one sequential comparison pass per test.
// Desktop-class machines can profitably go lower; laptops with smaller
// caches may prefer it higher. 0 disables the bitmap outright.
const DefaultThreshold = 0.8

// Offset is a coordinate relative to the origin of the set a Test call was
// made against.
type Offset struct{ X, Y, Z uint32 }

// ParallelFor mirrors internal/driver's worker-pool signature. Rebuild
// accepts one as a parameter so this package can parallelize its scan
// without importing driver (which imports sigmap).
type ParallelFor func(n int, fn func(lo, hi int))

// Oracle decides coefficient significance against a threshold that its
// owner updates once per bitplane. Which of its two strategies answers a
// given query is purely a performance decision; both report identical
// results for the same (c, threshold).
type Oracle struct {
	DimX, DimY int
	Threshold  float64
	Enabled    bool
	Bitmap     []bool
}

// NewOracle returns an Oracle for a volume with the given X/Y extents. The Z
// extent never enters the linear-index arithmetic, so it isn't needed here.
func NewOracle(dimX, dimY int) *Oracle {
	return &Oracle{DimX: dimX, DimY: dimY}
}

// Rebuild sets the oracle's threshold for the upcoming bitplane and decides
// whether to (re)build the whole-volume bitmap, triggering once the count of
// already-significant coefficients (lspOldLen) exceeds coeffLen*sigThreshold.
// sigThreshold <= 0 disables the bitmap unconditionally, matching the
// "configurable or removed entirely" resolution of this tunable.
func (o *Oracle) Rebuild(c []float64, threshold, sigThreshold float64, lspOldLen, coeffLen int, pf ParallelFor) {
	o.Threshold = threshold

	if sigThreshold <= 0 || float64(lspOldLen) <= float64(coeffLen)*sigThreshold {
		o.Enabled = false
		return
	}

	if cap(o.Bitmap) < coeffLen {
		o.Bitmap = make([]bool, coeffLen)
	} else {
		o.Bitmap = o.Bitmap[:coeffLen]
		for i := range o.Bitmap {
			o.Bitmap[i] = false
		}
	}
	bitmap := o.Bitmap
	pf(coeffLen, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if c[i] >= threshold {
				bitmap[i] = true
			}
		}
	})
	o.Enabled = true
}

// IsSignificant reports whether the coefficient at the given linear index is
// significant against the oracle's current threshold.
func (o *Oracle) IsSignificant(c []float64, idx uint64) bool {
	if o.Enabled {
		return o.Bitmap[idx]
	}
	return c[idx] >= o.Threshold
}

// Test scans set in z-major, y-middle, x-minor order, matching
// m_decide_significance, and returns partition.Sig plus the offset of the
// first significant coefficient found (relative to the set's own origin),
// or partition.Insig with a zero Offset if the set holds nothing
// significant.
func (o *Oracle) Test(c []float64, set partition.Set) (partition.Significance, Offset) {
	sliceSize := uint64(o.DimX) * uint64(o.DimY)
	for z := set.StartZ; z < set.StartZ+set.LenZ; z++ {
		sliceOffset := uint64(z) * sliceSize
		for y := set.StartY; y < set.StartY+set.LenY; y++ {
			colOffset := sliceOffset + uint64(y)*uint64(o.DimX)
			for x := set.StartX; x < set.StartX+set.LenX; x++ {
				if o.IsSignificant(c, colOffset+uint64(x)) {
					return partition.Sig, Offset{X: x - set.StartX, Y: y - set.StartY, Z: z - set.StartZ}
				}
			}
		}
	}
	return partition.Insig, Offset{}
}
