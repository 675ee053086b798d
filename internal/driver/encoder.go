package driver

import (
	"sync"

	"github.com/scivol/speck3d/internal/bitbuf"
	"github.com/scivol/speck3d/internal/partition"
	"github.com/scivol/speck3d/internal/sigmap"
	"github.com/scivol/speck3d/internal/speckset"
)

// encoder holds one bitplane coder's live state across a full Encode call.
// c holds coefficient magnitudes and is mutated in place as the refinement
// pass subtracts the current threshold from each newly- or already-
// significant entry. scratchTags/scratchNewSig/scratchResults are
// sortingPass/refinementPass's per-bitplane decision buffers, kept here
// instead of allocated fresh each bitplane.
type encoder struct {
	dims         Dims
	c            []float64
	sign         []bool
	lists        *speckset.Lists
	oracle       *sigmap.Oracle
	bits         *bitbuf.Buffer
	threshold    float64
	sigThreshold float64
	qz           bool
	budget       int

	scratchTags    []pixelTag
	scratchNewSig  []uint64
	scratchResults []bool
}

// encoderPool provides pooled encoders to reduce allocations across
// repeated Encode calls, the way t1Pool pools *T1 in internal/entropy.
var encoderPool = sync.Pool{
	New: func() interface{} { return new(encoder) },
}

// getEncoder returns a pooled encoder with its scratch buffers truncated
// to length 0 but backing arrays carried over from whichever previous
// call last used it, mirroring GetT1's resize-rather-than-reallocate
// approach.
func getEncoder() *encoder {
	e := encoderPool.Get().(*encoder)
	e.scratchTags = e.scratchTags[:0]
	e.scratchNewSig = e.scratchNewSig[:0]
	e.scratchResults = e.scratchResults[:0]
	return e
}

// putEncoder clears the fields specific to the call just finished so the
// pool doesn't keep a caller's coefficient buffer or bit stream alive,
// then returns e to the pool.
func putEncoder(e *encoder) {
	e.c = nil
	e.sign = nil
	e.lists = nil
	e.oracle = nil
	e.bits = nil
	encoderPool.Put(e)
}

// checkBudget reports errBudgetMet once the bit buffer has reached the
// configured budget. In QZ mode there is no budget to check.
func (e *encoder) checkBudget() error {
	if e.qz {
		return nil
	}
	if e.bits.Len() >= e.budget {
		return errBudgetMet
	}
	return nil
}

// pixelTag is the outcome of testing one LIP entry's significance, computed
// in the data-parallel phase of sortingPass and then replayed serially into
// the bit buffer, mirroring the reference implementation's m_tmp_result
// split between a parallel decision step and a serial emission step.
type pixelTag uint8

const (
	tagInsig pixelTag = iota
	tagSigPos
	tagSigNeg
)

// sortingPass processes LIP (the insignificant-pixel list) with a
// data-parallel significance test followed by serial bit emission, then
// walks LIS bottom-up (deepest partition level first), recursively coding
// any set the oracle finds significant. Ported from
// m_sorting_pass_encode.
func (e *encoder) sortingPass() error {
	n := len(e.lists.LIP)

	if cap(e.scratchTags) < n {
		e.scratchTags = make([]pixelTag, n)
	} else {
		e.scratchTags = e.scratchTags[:n]
		for i := range e.scratchTags {
			e.scratchTags[i] = tagInsig
		}
	}
	tags := e.scratchTags

	if cap(e.scratchNewSig) < n {
		e.scratchNewSig = make([]uint64, n)
	} else {
		e.scratchNewSig = e.scratchNewSig[:n]
	}
	newSig := e.scratchNewSig
	for i := range newSig {
		newSig[i] = speckset.GarbageIdx
	}

	parallelFor(len(e.lists.LIP), minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			idx := e.lists.LIP[i]
			if e.oracle.IsSignificant(e.c, idx) {
				if e.sign[idx] {
					tags[i] = tagSigPos
				} else {
					tags[i] = tagSigNeg
				}
				newSig[i] = idx
				e.lists.LIP[i] = speckset.GarbageIdx
			}
		}
	})

	for _, idx := range newSig {
		if idx != speckset.GarbageIdx {
			e.lists.LSPNew = append(e.lists.LSPNew, idx)
		}
	}

	for _, tag := range tags {
		switch tag {
		case tagSigPos:
			e.bits.AppendBit(true)
			if err := e.checkBudget(); err != nil {
				return err
			}
			e.bits.AppendBit(true)
			if err := e.checkBudget(); err != nil {
				return err
			}
		case tagSigNeg:
			e.bits.AppendBit(true)
			if err := e.checkBudget(); err != nil {
				return err
			}
			e.bits.AppendBit(false)
			if err := e.checkBudget(); err != nil {
				return err
			}
		default:
			e.bits.AppendBit(false)
			if err := e.checkBudget(); err != nil {
				return err
			}
		}
	}

	for idx1 := len(e.lists.LIS) - 1; idx1 >= 0; idx1-- {
		for idx2 := 0; idx2 < len(e.lists.LIS[idx1]); idx2++ {
			if err := e.processSet(idx1, idx2, partition.Unknown); err != nil {
				return err
			}
		}
	}
	return nil
}

// refinementPass emits one refinement bit per LSPOld entry (subtracting the
// threshold from whichever coefficients cross it this bitplane), then
// performs the matching subtraction for entries newly added to LSPNew this
// bitplane, and finally folds LSPNew into LSPOld. Ported from
// m_refinement_pass_encode.
func (e *encoder) refinementPass() error {
	n := len(e.lists.LSPOld)
	if cap(e.scratchResults) < n {
		e.scratchResults = make([]bool, n)
	} else {
		e.scratchResults = e.scratchResults[:n]
		for i := range e.scratchResults {
			e.scratchResults[i] = false
		}
	}
	results := e.scratchResults

	if e.oracle.Enabled {
		parallelFor(len(e.lists.LSPOld), minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				results[i] = e.oracle.Bitmap[e.lists.LSPOld[i]]
			}
		})
	} else {
		parallelFor(len(e.lists.LSPOld), minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				pos := e.lists.LSPOld[i]
				if e.c[pos] >= e.threshold {
					e.c[pos] -= e.threshold
					results[i] = true
				}
			}
		})
	}

	for _, r := range results {
		e.bits.AppendBit(r)
		if err := e.checkBudget(); err != nil {
			return err
		}
	}

	if e.oracle.Enabled {
		parallelFor(len(e.c), minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				if e.c[i] >= e.threshold {
					e.c[i] -= e.threshold
				}
			}
		})
	} else {
		parallelFor(len(e.lists.LSPNew), minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				e.c[e.lists.LSPNew[i]] -= e.threshold
			}
		})
	}

	e.lists.LSPOld = append(e.lists.LSPOld, e.lists.LSPNew...)
	e.lists.LSPNew = e.lists.LSPNew[:0]
	return nil
}

// processSet decides (or accepts a parent-supplied hint for) one LIS
// entry's significance, emits that single bit, and on significance
// recurses into codeSet before marking the set Garbage for the next Clean.
// Ported from m_process_S_encode.
func (e *encoder) processSet(idx1, idx2 int, sig partition.Significance) error {
	set := &e.lists.LIS[idx1][idx2]
	if debugChecks && set.Kind == partition.Garbage {
		panic("driver: processSet called on a garbage set")
	}

	var subsetSigs [8]partition.Significance

	if sig == partition.Unknown {
		s, off := e.oracle.Test(e.c, *set)
		set.Sig = s
		if set.Sig == partition.Sig {
			subI := 0
			if off.X >= set.LenX-set.LenX/2 {
				subI += 1
			}
			if off.Y >= set.LenY-set.LenY/2 {
				subI += 2
			}
			if off.Z >= set.LenZ-set.LenZ/2 {
				subI += 4
			}
			subsetSigs[subI] = partition.Sig
			if subI >= 4 {
				for i := 0; i < 4; i++ {
					subsetSigs[i] = partition.Insig
				}
			}
		}
	} else {
		set.Sig = sig
	}

	e.bits.AppendBit(set.Sig == partition.Sig)
	if err := e.checkBudget(); err != nil {
		return err
	}

	if set.Sig == partition.Sig {
		if err := e.codeSet(idx1, idx2, subsetSigs); err != nil {
			return err
		}
		e.lists.LIS[idx1][idx2].Kind = partition.Garbage
	}
	return nil
}

// codeSet splits a significant set into its 8 octants and immediately
// recurses into each: pixels go straight to processPixel, larger sets are
// appended to their own deeper bucket and recursed into via processSet.
// Subsets the parent's own scan already resolved (subsetSigs) skip their
// own oracle scan — a scan-avoidance optimization that never changes which
// bit gets written, only how it is decided. Ported from m_code_S_encode.
func (e *encoder) codeSet(idx1, idx2 int, subsetSigs [8]partition.Significance) error {
	set := e.lists.LIS[idx1][idx2]
	if debugChecks && set.IsPixel() {
		panic("driver: codeSet called on a pixel set")
	}
	subsets := partition.PartitionXYZ(set)

	for i, s := range subsets {
		sig := subsetSigs[i]
		switch {
		case s.IsPixel():
			e.lists.LIP = append(e.lists.LIP, linearIndex(e.dims, s))
			if err := e.processPixel(len(e.lists.LIP)-1, sig); err != nil {
				return err
			}
		case !s.IsEmpty():
			level := s.Level
			e.lists.LIS[level] = append(e.lists.LIS[level], s)
			if err := e.processSet(level, len(e.lists.LIS[level])-1, sig); err != nil {
				return err
			}
		}
	}
	return nil
}

// processPixel decides (or accepts a hint for) one LIP entry's
// significance, emits that bit plus, on significance, its sign bit, and
// promotes it to LSPNew. Ported from m_process_P_encode.
func (e *encoder) processPixel(loc int, sig partition.Significance) error {
	idx := e.lists.LIP[loc]

	var isSig bool
	if sig == partition.Unknown {
		isSig = e.oracle.IsSignificant(e.c, idx)
	} else {
		isSig = sig == partition.Sig
	}

	e.bits.AppendBit(isSig)
	if err := e.checkBudget(); err != nil {
		return err
	}

	if isSig {
		e.bits.AppendBit(e.sign[idx])
		if err := e.checkBudget(); err != nil {
			return err
		}
		e.lists.LSPNew = append(e.lists.LSPNew, idx)
		e.lists.LIP[loc] = speckset.GarbageIdx
	}
	return nil
}
