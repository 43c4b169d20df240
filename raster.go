package dtmlib

import (
	"github.com/egmgeo/dtmlib/log"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// RasterInfo is the spatial metadata of one raster file.
type RasterInfo struct {
	Width     int
	Height    int
	Bands     int
	DataType  gdal.DataType
	Transform [6]float64
	Proj      string
	NoData    float64
	HasNoData bool
}

// PixelSizeX is the horizontal scale of the affine transform.
func (r RasterInfo) PixelSizeX() float64 {
	return r.Transform[1]
}

// PixelSizeY is the negated vertical scale (that component is
// conventionally negative for north-up rasters).
func (r RasterInfo) PixelSizeY() float64 {
	return -r.Transform[5]
}

// Span is the raster's world extent as [minX, maxX, minY, maxY].
func (r RasterInfo) Span() (span [4]float64) {
	gt := r.Transform
	x2 := gt[0] + float64(r.Width)*gt[1]
	y2 := gt[3] + float64(r.Height)*gt[5]
	span[0], span[1] = gt[0], x2
	if x2 < gt[0] {
		span[0], span[1] = x2, gt[0]
	}
	span[2], span[3] = y2, gt[3]
	if gt[3] < y2 {
		span[2], span[3] = gt[3], y2
	}
	return
}

// GetRasterInfo reads the metadata of a raster without touching pixel data.
func (g *GdalToolbox) GetRasterInfo(tif string) (info RasterInfo, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	return g.rasterInfo(sds)
}

func (g *GdalToolbox) rasterInfo(sds *gdal.Dataset) (info RasterInfo, err error) {
	bands := sds.Bands()
	if len(bands) == 0 {
		err = ErrInvalidTif
		return
	}
	st := bands[0].Structure()
	info.Width = st.SizeX
	info.Height = st.SizeY
	info.Bands = len(bands)
	info.DataType = st.DataType
	info.Proj = sds.Projection()
	info.NoData, info.HasNoData = bands[0].NoData()
	if info.Transform, err = sds.GeoTransform(); err != nil {
		log.Error(g.logTag+"tif has no geotransform", zap.Error(err))
		err = ErrInvalidTif
	}
	return
}

// readBandFloat reads one whole band as float64 samples.
func (g *GdalToolbox) readBandFloat(sds *gdal.Dataset, idx int) (buf []float64, err error) {
	bands := sds.Bands()
	if idx >= len(bands) {
		err = ErrInvalidTif
		return
	}
	band := bands[idx]
	st := band.Structure()
	buf = make([]float64, st.SizeX*st.SizeY)
	if err = band.IO(gdal.IORead, 0, 0, buf, st.SizeX, st.SizeY); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.Int("band", idx), zap.Error(err))
		err = ErrTifReadFailed
	}
	return
}
