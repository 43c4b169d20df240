package dtmlib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/egmgeo/dtmlib/log"
	"github.com/egmgeo/dtmlib/utils"

	godal "github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClipRasterToAOI crops a raster to the AOI polygon: pixels outside the
// polygon become nodata (0 when the source declares none) and the output
// extent shrinks to the polygon's bounding box. The polygon is reprojected
// into the raster's CRS when the two differ; the raster is never reprojected.
func (g *GdalToolbox) ClipRasterToAOI(tif string, aoi AOI, out string) (err error) {
	log.Info(g.logTag+"clip raster", zap.String("tif", tif), zap.String("site", aoi.Site), zap.String("out", out))
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		return ErrInvalidTif
	}
	defer sds.Close()
	info, err := g.rasterInfo(sds)
	if err != nil {
		return
	}
	rasterSrid, err := g.sridOfProjection(info.Proj)
	if err != nil {
		return
	}
	wkb, err := g.TransformWkb(aoi.Geom, aoi.Srid, rasterSrid)
	if err != nil {
		return
	}
	ref, err := g.getSridRef(rasterSrid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	ext, err := g.parseWKT(SpanToWkt(info.Span()), ref)
	if err != nil {
		return
	}
	defer ext.Destroy()
	if !geo.Intersects(ext) {
		return fmt.Errorf("%w: site %s, tif %s", ErrNoOverlap, aoi.Site, tif)
	}
	// clamp the cutline to the raster extent so the cropped output never
	// grows a nodata collar beyond the source footprint
	cut := geo.Intersection(ext)
	defer cut.Destroy()

	tmpCutline := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_CUTLINE, uuid.NewString()))
	if err = os.WriteFile(tmpCutline, g.cutlineJSON(cut, rasterSrid), os.ModePerm); err != nil {
		return
	}
	defer os.Remove(tmpCutline)
	if err = utils.EnsureDirOf(out); err != nil {
		return
	}
	opts := []string{
		"-cutline", tmpCutline,
		"-crop_to_cutline",
		"-overwrite",
		"-co", "COMPRESS=LZW",
	}
	if !info.HasNoData {
		opts = append(opts, "-dstnodata", "0")
	}
	ods, err := godal.Warp(out, []*godal.Dataset{sds}, opts)
	if err != nil {
		log.Error(g.logTag+"failed to crop raster", zap.String("tif", tif), zap.Error(err))
		return
	}
	ods.Close()
	log.Info(g.logTag+"clip done", zap.String("out", out))
	return
}
