// Package speckset manages the three lists a SPECK sorting pass walks each
// bitplane: the list of insignificant pixels (LIP), the list of
// insignificant sets bucketed by partition level (LIS), and the two
// generations of the list of significant pixels (LSPOld/LSPNew) a
// refinement pass consumes and produces.
package speckset

import "github.com/scivol/speck3d/internal/partition"

// GarbageIdx marks a LIP or LSP slot whose entry has been promoted or
// removed elsewhere and is pending compaction, mirroring m_u64_garbage_val.
const GarbageIdx = ^uint64(0)

// Lists holds one bitplane coder's (or decoder's) full list state.
type Lists struct {
	LIP    []uint64
	LIS    [][]partition.Set
	LSPOld []uint64
	LSPNew []uint64
}

// New returns an empty Lists with LIS pre-sized to numBuckets partition
// levels, matching the bucket count the initializer computes from the
// volume's dimensions.
func New(numBuckets int) *Lists {
	return &Lists{LIS: make([][]partition.Set, numBuckets)}
}

// Clean compacts every LIS bucket by dropping sets already coded this
// bitplane (Kind == partition.Garbage) and compacts LIP by dropping entries
// already promoted to LSPNew (tagged GarbageIdx). Ported from m_clean_LIS;
// called once per bitplane, between the refinement pass and the next
// sorting pass.
func (l *Lists) Clean() {
	for i, bucket := range l.LIS {
		if len(bucket) == 0 {
			continue
		}
		kept := bucket[:0]
		for _, s := range bucket {
			if s.Kind != partition.Garbage {
				kept = append(kept, s)
			}
		}
		l.LIS[i] = kept
	}

	kept := l.LIP[:0]
	for _, idx := range l.LIP {
		if idx != GarbageIdx {
			kept = append(kept, idx)
		}
	}
	l.LIP = kept
}
