package driver

import (
	"math"

	"github.com/scivol/speck3d/internal/partition"
	"github.com/scivol/speck3d/internal/speckset"
)

// numOfXforms returns how many wavelet transform levels a 1D extent of the
// given length supports, treating 8 as the minimal length worth one more
// level. Used here only to decide how deep the initial set partitioning
// should go, mirroring speck_helper.cpp's num_of_xforms.
func numOfXforms(length int) int {
	if length <= 0 {
		return 0
	}
	f := math.Log2(float64(length) / 8.0)
	if f < 0 {
		return 0
	}
	return int(f) + 1
}

// numOfPartitions returns how many times an extent of the given length can
// be halved before reaching 1, matching speck_helper.cpp's
// num_of_partitions; used to size the LIS bucket count.
func numOfPartitions(length int) int {
	n := 0
	for length > 1 {
		n++
		length -= length / 2
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// initializeLists seeds a fresh Lists for dims by repeatedly partitioning a
// single whole-volume set until both the X/Y and Z axes have exhausted
// their own transform depth, bucketing every subset but the one carried
// forward by its partition level. The carried-forward set — the one most
// likely to hold a significant coefficient — is returned separately and is
// also the first entry in its own bucket (m_initialize_sets_lists's
// "insert at the front" heuristic), ready for the first sorting pass.
func initializeLists(dims Dims) (*speckset.Lists, partition.Set) {
	numBuckets := 1 + numOfPartitions(dims.X) + numOfPartitions(dims.Y) + numOfPartitions(dims.Z)
	lists := speckset.New(numBuckets)

	big := partition.Set{LenX: uint32(dims.X), LenY: uint32(dims.Y), LenZ: uint32(dims.Z)}

	xformsXY := numOfXforms(min(dims.X, dims.Y))
	xformsZ := numOfXforms(dims.Z)
	xf := 0

	for xf < xformsXY && xf < xformsZ {
		subsets := partition.PartitionXYZ(big)
		big = subsets[0]
		for i := 1; i < len(subsets); i++ {
			s := subsets[i]
			lists.LIS[s.Level] = append(lists.LIS[s.Level], s)
		}
		xf++
	}

	if xf < xformsXY {
		for xf < xformsXY {
			subsets := partition.PartitionXY(big)
			big = subsets[0]
			for i := 1; i < len(subsets); i++ {
				s := subsets[i]
				lists.LIS[s.Level] = append(lists.LIS[s.Level], s)
			}
			xf++
		}
	} else if xf < xformsZ {
		for xf < xformsZ {
			subsets := partition.PartitionZ(big)
			big = subsets[0]
			s := subsets[1]
			lists.LIS[s.Level] = append(lists.LIS[s.Level], s)
			xf++
		}
	}

	lists.LIS[big.Level] = append([]partition.Set{big}, lists.LIS[big.Level]...)

	return lists, big
}
