package dtmlib

import (
	"math"

	"github.com/egmgeo/dtmlib/log"
	"github.com/egmgeo/dtmlib/utils"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

const degToRad = math.Pi / 180

// Hillshade renders a clipped elevation raster as an 8-bit shaded relief
// image lit from the given sun azimuth/altitude (degrees). Nodata pixels come
// out as 0, which is also the declared nodata of the output. Normalization is
// per tile, so adjacent tiles may show seams at their shared edge.
func (g *GdalToolbox) Hillshade(tif, out string, azimuth, altitude float64) (err error) {
	log.Info(g.logTag+"hillshade", zap.String("tif", tif), zap.String("out", out),
		zap.Float64("azimuth", azimuth), zap.Float64("altitude", altitude))
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
	dem, err := g.readBandFloat(sds, 0)
	if err != nil {
		return
	}
	// keep the nodata sentinel out of the arithmetic entirely
	if info.HasNoData {
		for i, v := range dem {
			if v == info.NoData {
				dem[i] = math.NaN()
			}
		}
	}
	hs := shadeIntensity(dem, info.Width, info.Height, info.PixelSizeX(), info.PixelSizeY(), azimuth, altitude)
	buf := normalizeToByte(hs)

	if err = utils.EnsureDirOf(out); err != nil {
		return
	}
	ods, err := gdal.Create(gdal.GTiff, out, 1, gdal.Byte, info.Width, info.Height,
		gdal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		log.Error(g.logTag+"create hillshade tif failed", zap.String("out", out), zap.Error(err))
		return ErrGdalDriverCreate
	}
	defer ods.Close()
	if err = ods.SetGeoTransform(info.Transform); err != nil {
		return
	}
	if err = ods.SetProjection(info.Proj); err != nil {
		return
	}
	band := ods.Bands()[0]
	if err = band.SetNoData(0); err != nil {
		return
	}
	if err = band.IO(gdal.IOWrite, 0, 0, buf, info.Width, info.Height); err != nil {
		log.Error(g.logTag+"write hillshade band failed", zap.Error(err))
		return ErrTifWriteFailed
	}
	log.Info(g.logTag+"hillshade done", zap.String("out", out))
	return
}

// shadeIntensity computes the per-pixel illumination of an elevation grid:
// slope = arctan(hypot(dz/dx, dz/dy)), aspect = arctan2(-dz/dx, dz/dy),
// intensity = sin(alt)*cos(slope) + cos(alt)*sin(slope)*cos(az-aspect).
// The result is in [-1, 1]; NaN elevations yield NaN.
func shadeIntensity(z []float64, w, h int, xRes, yRes, azimuth, altitude float64) []float64 {
	dzdx, dzdy := gradient2D(z, w, h, xRes, yRes)
	az := azimuth * degToRad
	alt := altitude * degToRad
	sinAlt, cosAlt := math.Sin(alt), math.Cos(alt)
	hs := make([]float64, len(z))
	for i := range hs {
		slope := math.Atan(math.Hypot(dzdx[i], dzdy[i]))
		aspect := math.Atan2(-dzdx[i], dzdy[i])
		hs[i] = sinAlt*math.Cos(slope) + cosAlt*math.Sin(slope)*math.Cos(az-aspect)
	}
	return hs
}

// gradient2D is the two-dimensional numerical gradient of a w×h row-major
// grid: central differences in the interior, one-sided at the edges, scaled
// by the sample spacing of the respective axis (rows first, then columns).
// Axes shorter than two samples get a zero gradient. NaN propagates.
func gradient2D(z []float64, w, h int, dRow, dCol float64) (gr, gc []float64) {
	gr = make([]float64, len(z))
	gc = make([]float64, len(z))
	if h > 1 {
		for c := 0; c < w; c++ {
			gr[c] = (z[w+c] - z[c]) / dRow
			gr[(h-1)*w+c] = (z[(h-1)*w+c] - z[(h-2)*w+c]) / dRow
			for r := 1; r < h-1; r++ {
				gr[r*w+c] = (z[(r+1)*w+c] - z[(r-1)*w+c]) / (2 * dRow)
			}
		}
	}
	if w > 1 {
		for r := 0; r < h; r++ {
			row := r * w
			gc[row] = (z[row+1] - z[row]) / dCol
			gc[row+w-1] = (z[row+w-1] - z[row+w-2]) / dCol
			for c := 1; c < w-1; c++ {
				gc[row+c] = (z[row+c+1] - z[row+c-1]) / (2 * dCol)
			}
		}
	}
	return
}

// normalizeToByte rescales intensities to [0,255] using the finite min/max of
// the grid. An all-NaN or perfectly flat grid comes out all zero instead of
// dividing by zero, and NaN pixels are forced to 0 regardless.
func normalizeToByte(hs []float64) []byte {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range hs {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	buf := make([]byte, len(hs))
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) || hi == lo {
		return buf
	}
	scale := 255 / (hi - lo)
	for i, v := range hs {
		if math.IsNaN(v) {
			continue
		}
		buf[i] = byte((v - lo) * scale)
	}
	return buf
}
