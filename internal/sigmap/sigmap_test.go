package sigmap

import (
	"testing"

	"github.com/scivol/speck3d/internal/partition"
)

func sequentialParallelFor(n int, fn func(lo, hi int)) { fn(0, n) }

func TestOracle_IsSignificant_DirectComparison(t *testing.T) {
	o := NewOracle(4, 4)
	o.Threshold = 10
	c := []float64{5, 10, 15}

	if o.IsSignificant(c, 0) {
		t.Error("5 should not be significant against threshold 10")
	}
	if !o.IsSignificant(c, 1) {
		t.Error("10 should be significant against threshold 10")
	}
	if !o.IsSignificant(c, 2) {
		t.Error("15 should be significant against threshold 10")
	}
}

func TestOracle_Rebuild_DisabledByZeroThreshold(t *testing.T) {
	o := NewOracle(2, 2)
	c := []float64{1, 2, 3, 4}
	o.Rebuild(c, 2, 0, 4, 4, sequentialParallelFor)
	if o.Enabled {
		t.Error("Rebuild with sigThreshold<=0 should leave the bitmap disabled")
	}
}

func TestOracle_Rebuild_EnablesAboveThreshold(t *testing.T) {
	o := NewOracle(2, 2)
	c := []float64{1, 2, 3, 4}
	// lspOldLen (4) > coeffLen(4)*0.5 triggers the bitmap.
	o.Rebuild(c, 3, 0.5, 4, 4, sequentialParallelFor)
	if !o.Enabled {
		t.Fatal("Rebuild should have enabled the bitmap")
	}
	want := []bool{false, false, true, true}
	for i, w := range want {
		if o.Bitmap[i] != w {
			t.Errorf("Bitmap[%d] = %v, want %v", i, o.Bitmap[i], w)
		}
	}
}

func TestOracle_DirectAndBitmapAgree(t *testing.T) {
	c := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	threshold := 4.0

	direct := NewOracle(2, 2)
	direct.Threshold = threshold

	bitmap := NewOracle(2, 2)
	bitmap.Rebuild(c, threshold, 0.0001, 100, len(c), sequentialParallelFor)

	for i := range c {
		if direct.IsSignificant(c, uint64(i)) != bitmap.IsSignificant(c, uint64(i)) {
			t.Errorf("index %d: direct and bitmap strategies disagree", i)
		}
	}
}

func TestOracle_Test_FindsFirstSignificantInScanOrder(t *testing.T) {
	// 2x2x2 volume; coefficient at (1,1,1) -> linear index 7 is significant.
	o := NewOracle(2, 2)
	o.Threshold = 10
	c := make([]float64, 8)
	c[7] = 20

	set := partition.Set{LenX: 2, LenY: 2, LenZ: 2}
	sig, off := o.Test(c, set)
	if sig != partition.Sig {
		t.Fatalf("Test() significance = %v, want Sig", sig)
	}
	if off != (Offset{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Test() offset = %+v, want {1,1,1}", off)
	}
}

func TestOracle_Test_InsignificantSet(t *testing.T) {
	o := NewOracle(2, 2)
	o.Threshold = 10
	c := make([]float64, 8)

	set := partition.Set{LenX: 2, LenY: 2, LenZ: 2}
	sig, off := o.Test(c, set)
	if sig != partition.Insig {
		t.Fatalf("Test() significance = %v, want Insig", sig)
	}
	if off != (Offset{}) {
		t.Errorf("Test() offset = %+v, want zero value", off)
	}
}

func TestOracle_Test_OffsetRelativeToSetOrigin(t *testing.T) {
	o := NewOracle(4, 4)
	o.Threshold = 10
	c := make([]float64, 64)
	// Set starts at (2,2,2), length 2 in each axis; significant coefficient
	// at absolute (3,3,3) -> linear index 3*16+3*4+3 = 63.
	c[63] = 50

	set := partition.Set{StartX: 2, StartY: 2, StartZ: 2, LenX: 2, LenY: 2, LenZ: 2}
	sig, off := o.Test(c, set)
	if sig != partition.Sig {
		t.Fatalf("Test() significance = %v, want Sig", sig)
	}
	if off != (Offset{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Test() offset = %+v, want {1,1,1}", off)
	}
}
