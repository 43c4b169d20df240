package dtmlib

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBlockAverageIntegerScale(t *testing.T) {
	// 4x4 grid averaged 2x2 into 2x2
	src := []float64{
		1, 3, 10, 20,
		5, 7, 30, 40,
		2, 2, 8, 8,
		2, 2, 8, 8,
	}
	dst := blockAverage(src, 4, 4, 2, 2, 2, 0, false)
	assert.Equal(t, []float64{4, 25, 2, 8}, dst)
}

func TestBlockAverageIdentity(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5, 6}
	dst := blockAverage(src, 3, 2, 3, 2, 1, 0, false)
	assert.Equal(t, src, dst)
}

func TestBlockAverageFractionalScale(t *testing.T) {
	// 3 columns coarsened by 1.5: the first output covers col0 fully and
	// half of col1, the second the rest
	src := []float64{0, 6, 12}
	dst := blockAverage(src, 3, 1, 2, 1, 1.5, 0, false)
	want0 := (0*1.0 + 6*0.5) / 1.5
	want1 := (6*0.5 + 12*1.0) / 1.5
	assert.True(t, math.Abs(dst[0]-want0) < 1e-12)
	assert.True(t, math.Abs(dst[1]-want1) < 1e-12)
}

func TestBlockAverageNodata(t *testing.T) {
	const nd = -9999.0
	src := []float64{
		nd, 4,
		nd, nd,
	}
	dst := blockAverage(src, 2, 2, 1, 1, 2, nd, true)
	// the single valid sample carries all the weight
	assert.Equal(t, []float64{4}, dst)

	src = []float64{nd, nd, nd, nd}
	dst = blockAverage(src, 2, 2, 1, 1, 2, nd, true)
	assert.Equal(t, []float64{nd}, dst)
}

func TestResampleScaleTen(t *testing.T) {
	dir := t.TempDir()
	dtm := filepath.Join(dir, "fine.tif")
	writeTestDTM(t, dtm, 1000, 1000, 1, 0, 1000, -9999, true, func(r, c int) float64 {
		return float64(r + c)
	})
	g := NewGdalToolbox(dir)
	out := filepath.Join(dir, "coarse.tif")
	if err := g.Resample(dtm, out, 10); err != nil {
		t.Fatalf("resample: %v", err)
	}
	info, err := g.GetRasterInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 100 || info.Height != 100 {
		t.Fatalf("coarse size = %dx%d, want 100x100", info.Width, info.Height)
	}
	if info.Transform[1] != 10 || info.Transform[5] != -10 {
		t.Fatalf("coarse pixel size = %g x %g, want 10 x -10", info.Transform[1], info.Transform[5])
	}
	if info.Transform[0] != 0 || info.Transform[3] != 1000 {
		t.Fatalf("coarse origin = (%g, %g), want (0, 1000)", info.Transform[0], info.Transform[3])
	}
}

func TestResampleScaleOne(t *testing.T) {
	dir := t.TempDir()
	dtm := filepath.Join(dir, "same.tif")
	writeTestDTM(t, dtm, 20, 10, 2, 100, 200, -9999, true, func(r, c int) float64 {
		return float64(r * c)
	})
	g := NewGdalToolbox(dir)
	out := filepath.Join(dir, "same_out.tif")
	if err := g.Resample(dtm, out, 2); err != nil {
		t.Fatalf("resample: %v", err)
	}
	src, srcInfo := readBand(t, dtm, 0)
	dst, dstInfo := readBand(t, out, 0)
	if dstInfo.Width != srcInfo.Width || dstInfo.Height != srcInfo.Height {
		t.Fatalf("size changed: %dx%d -> %dx%d", srcInfo.Width, srcInfo.Height, dstInfo.Width, dstInfo.Height)
	}
	assert.Equal(t, srcInfo.Transform, dstInfo.Transform)
	assert.Equal(t, src, dst)
}

func TestResampleDegenerate(t *testing.T) {
	dir := t.TempDir()
	dtm := filepath.Join(dir, "tiny.tif")
	writeTestDTM(t, dtm, 4, 4, 1, 0, 4, -9999, true, func(r, c int) float64 {
		return 1
	})
	g := NewGdalToolbox(dir)

	// coarser than the tile itself
	err := g.Resample(dtm, filepath.Join(dir, "bad1.tif"), 100)
	if !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("err = %v, want ErrInvalidResolution", err)
	}

	// nonsense target
	err = g.Resample(dtm, filepath.Join(dir, "bad2.tif"), -5)
	if !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("err = %v, want ErrInvalidResolution", err)
	}
}
