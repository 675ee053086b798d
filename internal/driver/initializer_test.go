package driver

import "testing"

func TestNumOfPartitions(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{8, 3},
		{9, 4},
	}
	for _, tt := range tests {
		if got := numOfPartitions(tt.length); got != tt.want {
			t.Errorf("numOfPartitions(%d) = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestNumOfXforms(t *testing.T) {
	if got := numOfXforms(0); got != 0 {
		t.Errorf("numOfXforms(0) = %d, want 0", got)
	}
	if got := numOfXforms(4); got != 0 {
		t.Errorf("numOfXforms(4) = %d, want 0 (below the minimal length of 8)", got)
	}
	if got := numOfXforms(8); got != 1 {
		t.Errorf("numOfXforms(8) = %d, want 1", got)
	}
	if got := numOfXforms(16); got != 2 {
		t.Errorf("numOfXforms(16) = %d, want 2", got)
	}
}

func TestInitializeLists_CoversWholeVolume(t *testing.T) {
	dims := Dims{X: 8, Y: 8, Z: 8}
	lists, big := initializeLists(dims)

	total := uint64(big.LenX) * uint64(big.LenY) * uint64(big.LenZ)
	for _, bucket := range lists.LIS {
		for _, s := range bucket {
			total += uint64(s.LenX) * uint64(s.LenY) * uint64(s.LenZ)
		}
	}
	// big itself is also inserted into its own bucket's front; don't
	// double count it.
	found := false
	for _, s := range lists.LIS[big.Level] {
		if s == big {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("big set not present at the front of its own bucket")
	}
	total -= uint64(big.LenX) * uint64(big.LenY) * uint64(big.LenZ)

	want := uint64(dims.X) * uint64(dims.Y) * uint64(dims.Z)
	if total != want {
		t.Errorf("total coefficients covered by LIS buckets = %d, want %d", total, want)
	}
}

func TestInitializeLists_DegenerateZ(t *testing.T) {
	// 2D case: Dz=1 should produce a valid initializer using PartitionXY
	// only, never attempting to split a length-1 Z axis.
	dims := Dims{X: 8, Y: 8, Z: 1}
	lists, big := initializeLists(dims)
	if big.LenZ != 1 {
		t.Errorf("big.LenZ = %d, want 1", big.LenZ)
	}
	for _, bucket := range lists.LIS {
		for _, s := range bucket {
			if s.LenZ != 1 {
				t.Errorf("subset has LenZ = %d, want 1 for a degenerate Z axis", s.LenZ)
			}
		}
	}
}
