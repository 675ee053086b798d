// Package partition implements the octree/quadtree set-splitting operations
// a SPECK coder uses to recursively divide the coefficient volume into
// insignificant sets, each tagged with its partition level (the number of
// axis bisections accumulated since the whole-volume set).
package partition

// Kind distinguishes a set still awaiting processing from one already coded
// and marked for removal from its bucket.
type Kind uint8

const (
	// Live sets are still part of a LIS bucket and awaiting a sorting pass.
	Live Kind = iota
	// Garbage sets have been coded (found significant and split into a
	// pixel or a fresh set of children) and are pending cleanup.
	Garbage
)

// Set is a SPECKSet3D: a contiguous axis-aligned box of coefficients, plus
// the bookkeeping the sorting pass needs. Level buckets the set into its
// owning LIS slot; Sig is transient per-bitplane scratch state, valid only
// during a single sorting pass.
type Set struct {
	StartX, StartY, StartZ uint32
	LenX, LenY, LenZ       uint32
	Level                  int
	Kind                   Kind
	Sig                    Significance
}

// Significance tags what a sorting pass knows (or doesn't yet know) about a
// set's or pixel's significance against the current threshold.
type Significance uint8

const (
	// Unknown means the sorting pass has not yet tested this entry; the
	// oracle must be consulted.
	Unknown Significance = iota
	Sig
	Insig
	// NewlySig marks a LIP entry that became significant this bitplane; it
	// is never a valid input to the sorting pass, only an output tag.
	NewlySig
)

// IsPixel reports whether the set has collapsed to a single coefficient.
func (s Set) IsPixel() bool {
	return s.LenX == 1 && s.LenY == 1 && s.LenZ == 1
}

// IsEmpty reports whether the set has a zero-length axis and holds no
// coefficients. Empty sets are produced by partitioning a set whose length
// along a split axis is 1 (its upper half has length 0) and are dropped by
// the caller rather than pushed onto any list.
func (s Set) IsEmpty() bool {
	return s.LenX == 0 || s.LenY == 0 || s.LenZ == 0
}

// PartitionXYZ splits set into up to 8 octants, halving along X, Y, and Z.
// The larger half of an odd split always comes first. Subset index encodes
// which half of each axis a child occupies: bit 0 is the X half, bit 1 is Y,
// bit 2 is Z (0 = low half, 1 = high half), matching m_partition_S_XYZ's
// child ordering.
func PartitionXYZ(set Set) [8]Set {
	var subsets [8]Set

	splitX := [2]uint32{set.LenX - set.LenX/2, set.LenX / 2}
	splitY := [2]uint32{set.LenY - set.LenY/2, set.LenY / 2}
	splitZ := [2]uint32{set.LenZ - set.LenZ/2, set.LenZ / 2}

	level := set.Level
	if splitX[1] > 0 {
		level++
	}
	if splitY[1] > 0 {
		level++
	}
	if splitZ[1] > 0 {
		level++
	}

	for bz := uint32(0); bz < 2; bz++ {
		for by := uint32(0); by < 2; by++ {
			for bx := uint32(0); bx < 2; bx++ {
				idx := bx + 2*by + 4*bz
				subsets[idx] = Set{
					StartX: set.StartX + bx*splitX[0],
					LenX:   splitX[bx],
					StartY: set.StartY + by*splitY[0],
					LenY:   splitY[by],
					StartZ: set.StartZ + bz*splitZ[0],
					LenZ:   splitZ[bz],
					Level:  level,
				}
			}
		}
	}

	return subsets
}

// PartitionXY splits set into 4 quadrants, halving along X and Y only; Z
// passes through unchanged. Used once the Z axis has exhausted its own
// transform levels (or is degenerate, Z length 1, the 2D case).
func PartitionXY(set Set) [4]Set {
	var subsets [4]Set

	splitX := [2]uint32{set.LenX - set.LenX/2, set.LenX / 2}
	splitY := [2]uint32{set.LenY - set.LenY/2, set.LenY / 2}

	level := set.Level
	if splitX[1] > 0 {
		level++
	}
	if splitY[1] > 0 {
		level++
	}

	for by := uint32(0); by < 2; by++ {
		for bx := uint32(0); bx < 2; bx++ {
			idx := bx + 2*by
			subsets[idx] = Set{
				StartX: set.StartX + bx*splitX[0],
				LenX:   splitX[bx],
				StartY: set.StartY + by*splitY[0],
				LenY:   splitY[by],
				StartZ: set.StartZ,
				LenZ:   set.LenZ,
				Level:  level,
			}
		}
	}

	return subsets
}

// PartitionZ splits set into 2 slabs along Z only; X and Y pass through
// unchanged. Used when the Z axis still has transform levels to exhaust
// after X and Y have run out.
func PartitionZ(set Set) [2]Set {
	var subsets [2]Set

	splitZ := [2]uint32{set.LenZ - set.LenZ/2, set.LenZ / 2}

	level := set.Level
	if splitZ[1] > 0 {
		level++
	}

	for bz := uint32(0); bz < 2; bz++ {
		subsets[bz] = Set{
			StartX: set.StartX,
			LenX:   set.LenX,
			StartY: set.StartY,
			LenY:   set.LenY,
			StartZ: set.StartZ + bz*splitZ[0],
			LenZ:   splitZ[bz],
			Level:  level,
		}
	}

	return subsets
}
