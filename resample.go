package dtmlib

import (
	"fmt"
	"math"

	"github.com/egmgeo/dtmlib/log"
	"github.com/egmgeo/dtmlib/utils"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// Resample coarsens an elevation raster to the target pixel size using
// area-weighted averaging, which preserves elevation statistics when
// downsampling a continuous surface. Dimensions are floored to whole pixels
// and the affine transform is scaled by the same factor on both axes,
// keeping the origin corner. CRS, datatype and nodata carry over unchanged.
// Source pixels must be square.
func (g *GdalToolbox) Resample(tif, out string, targetRes float64) (err error) {
	log.Info(g.logTag+"resample", zap.String("tif", tif), zap.String("out", out), zap.Float64("targetRes", targetRes))
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		return ErrInvalidTif
	}
	defer sds.Close()
	info, err := g.rasterInfo(sds)
	if err != nil {
		return
	}
	xRes, yRes := info.PixelSizeX(), info.PixelSizeY()
	if math.Abs(xRes-yRes) > SQUARE_PIXEL_EPS*math.Abs(xRes) {
		return fmt.Errorf("%w: %g x %g", ErrNonSquarePixels, xRes, yRes)
	}
	scale := targetRes / xRes
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return fmt.Errorf("%w: scale %g", ErrInvalidResolution, scale)
	}
	newW := int(float64(info.Width) / scale)
	newH := int(float64(info.Height) / scale)
	if newW < 1 || newH < 1 {
		return fmt.Errorf("%w: %dx%d at scale %g", ErrInvalidResolution, newW, newH, scale)
	}

	gt := info.Transform
	gt[1] *= scale
	gt[2] *= scale
	gt[4] *= scale
	gt[5] *= scale

	if err = utils.EnsureDirOf(out); err != nil {
		return
	}
	ods, err := gdal.Create(gdal.GTiff, out, info.Bands, info.DataType, newW, newH,
		gdal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		log.Error(g.logTag+"create resampled tif failed", zap.String("out", out), zap.Error(err))
		return ErrGdalDriverCreate
	}
	defer ods.Close()
	if err = ods.SetGeoTransform(gt); err != nil {
		return
	}
	if err = ods.SetProjection(info.Proj); err != nil {
		return
	}
	for i := 0; i < info.Bands; i++ {
		var buf []float64
		if buf, err = g.readBandFloat(sds, i); err != nil {
			return
		}
		coarse := blockAverage(buf, info.Width, info.Height, newW, newH, scale, info.NoData, info.HasNoData)
		band := ods.Bands()[i]
		if info.HasNoData {
			if err = band.SetNoData(info.NoData); err != nil {
				return
			}
		}
		if err = band.IO(gdal.IOWrite, 0, 0, coarse, newW, newH); err != nil {
			log.Error(g.logTag+"write resampled band failed", zap.Int("band", i), zap.Error(err))
			return ErrTifWriteFailed
		}
	}
	log.Info(g.logTag+"resample done", zap.String("out", out), zap.Int("width", newW), zap.Int("height", newH))
	return
}

// blockAverage computes each output sample as the area-weighted mean of the
// source pixels its footprint covers. Nodata samples carry no weight; a
// footprint with no valid samples emits nodata.
func blockAverage(src []float64, w, h, newW, newH int, scale, nodata float64, hasNodata bool) []float64 {
	dst := make([]float64, newW*newH)
	for or := 0; or < newH; or++ {
		r0, r1 := float64(or)*scale, float64(or+1)*scale
		for oc := 0; oc < newW; oc++ {
			c0, c1 := float64(oc)*scale, float64(oc+1)*scale
			var sum, wsum float64
			for r := int(r0); r < h && float64(r) < r1; r++ {
				rw := overlap(r0, r1, float64(r), float64(r)+1)
				if rw <= 0 {
					continue
				}
				for c := int(c0); c < w && float64(c) < c1; c++ {
					cw := overlap(c0, c1, float64(c), float64(c)+1)
					if cw <= 0 {
						continue
					}
					v := src[r*w+c]
					if math.IsNaN(v) || (hasNodata && v == nodata) {
						continue
					}
					sum += v * rw * cw
					wsum += rw * cw
				}
			}
			if wsum > 0 {
				dst[or*newW+oc] = sum / wsum
			} else if hasNodata {
				dst[or*newW+oc] = nodata
			}
		}
	}
	return dst
}

// overlap is the length of the intersection of intervals [a0,a1) and [b0,b1).
func overlap(a0, a1, b0, b1 float64) float64 {
	lo, hi := math.Max(a0, b0), math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
