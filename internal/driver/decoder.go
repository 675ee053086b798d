package driver

import (
	"sync"

	"github.com/scivol/speck3d/internal/bitbuf"
	"github.com/scivol/speck3d/internal/partition"
	"github.com/scivol/speck3d/internal/speckset"
)

// decoder mirrors encoder's list-walking structure, but reads each decision
// bit from the stream rather than computing it from the coefficient buffer:
// c and sign start zeroed/positive and are filled in as significance and
// refinement bits arrive.
type decoder struct {
	dims      Dims
	c         []float64
	sign      []bool
	lists     *speckset.Lists
	reader    *bitbuf.Reader
	threshold float64
}

// decoderPool provides pooled decoders to reduce allocations across
// repeated Decode calls, mirroring htDecoderPool in internal/entropy.
var decoderPool = sync.Pool{
	New: func() interface{} { return new(decoder) },
}

func getDecoder() *decoder {
	return decoderPool.Get().(*decoder)
}

// putDecoder clears the fields specific to the call just finished before
// returning d to the pool.
func putDecoder(d *decoder) {
	d.c = nil
	d.sign = nil
	d.lists = nil
	d.reader = nil
	decoderPool.Put(d)
}

// sortingPass mirrors encoder.sortingPass bit-for-bit: it processes LIP
// first, then walks LIS deepest-bucket-first, reading exactly the bits the
// encoder wrote in exactly the same order. Ported from
// m_sorting_pass_decode.
func (d *decoder) sortingPass() error {
	for i := range d.lists.LIP {
		if err := d.processPixel(i); err != nil {
			return err
		}
	}

	for idx1 := len(d.lists.LIS) - 1; idx1 >= 0; idx1-- {
		for idx2 := 0; idx2 < len(d.lists.LIS[idx1]); idx2++ {
			if err := d.processSet(idx1, idx2); err != nil {
				return err
			}
		}
	}
	return nil
}

// refinementPass reads one refinement bit per LSPOld entry and applies
// +-threshold/2 to the matching coefficient, assigns 1.5*threshold to every
// LSPNew entry (their first refinement value), then folds LSPNew into
// LSPOld. If the budget runs out partway through LSPOld, the LSPNew step is
// skipped here; DecodeVolume's post-loop cleanup catches any stragglers.
// Ported from m_refinement_pass_decode.
func (d *decoder) refinementPass() error {
	halfT := d.threshold * 0.5

	for _, idx := range d.lists.LSPOld {
		bit, err := d.reader.Bit()
		if err != nil {
			return errBudgetMet
		}
		if bit {
			d.c[idx] += halfT
		} else {
			d.c[idx] -= halfT
		}
	}

	oneHalfT := d.threshold * 1.5
	for _, idx := range d.lists.LSPNew {
		d.c[idx] = oneHalfT
	}

	d.lists.LSPOld = append(d.lists.LSPOld, d.lists.LSPNew...)
	d.lists.LSPNew = d.lists.LSPNew[:0]
	return nil
}

// processSet reads one significance bit for a LIS entry and, if
// significant, recurses into codeSet before marking the set Garbage.
// Ported from m_process_S_decode.
func (d *decoder) processSet(idx1, idx2 int) error {
	bit, err := d.reader.Bit()
	if err != nil {
		return errBudgetMet
	}

	set := &d.lists.LIS[idx1][idx2]
	if debugChecks && set.Kind == partition.Garbage {
		panic("driver: processSet called on a garbage set")
	}
	if bit {
		set.Sig = partition.Sig
	} else {
		set.Sig = partition.Insig
	}

	if set.Sig == partition.Sig {
		if err := d.codeSet(idx1, idx2); err != nil {
			return err
		}
		d.lists.LIS[idx1][idx2].Kind = partition.Garbage
	}
	return nil
}

// codeSet splits a significant set into its 8 octants and recurses into
// each exactly as codeSet does on the encode side, with no hints to
// consume: every subset always reads its own significance bit. Ported from
// m_code_S_decode.
func (d *decoder) codeSet(idx1, idx2 int) error {
	set := d.lists.LIS[idx1][idx2]
	if debugChecks && set.IsPixel() {
		panic("driver: codeSet called on a pixel set")
	}
	subsets := partition.PartitionXYZ(set)

	for _, s := range subsets {
		switch {
		case s.IsPixel():
			d.lists.LIP = append(d.lists.LIP, linearIndex(d.dims, s))
			if err := d.processPixel(len(d.lists.LIP) - 1); err != nil {
				return err
			}
		case !s.IsEmpty():
			level := s.Level
			d.lists.LIS[level] = append(d.lists.LIS[level], s)
			if err := d.processSet(level, len(d.lists.LIS[level])-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// processPixel reads one significance bit for a LIP entry and, if
// significant, its sign bit, then promotes it to LSPNew. Ported from
// m_process_P_decode.
func (d *decoder) processPixel(loc int) error {
	bit, err := d.reader.Bit()
	if err != nil {
		return errBudgetMet
	}
	if !bit {
		return nil
	}

	idx := d.lists.LIP[loc]
	signBit, err := d.reader.Bit()
	if err != nil {
		return errBudgetMet
	}
	d.sign[idx] = signBit
	d.lists.LIP[loc] = speckset.GarbageIdx
	d.lists.LSPNew = append(d.lists.LSPNew, idx)
	return nil
}
