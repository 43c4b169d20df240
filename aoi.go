package dtmlib

import (
	"fmt"
	"os"

	"github.com/egmgeo/dtmlib/log"
	"github.com/egmgeo/dtmlib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// LoadAOI resolves a site name to its area of interest: the named layer of a
// multi-layer vector store (GeoPackage), with all features dissolved into one
// polygon. The returned geometry keeps the CRS declared by the store.
func (g *GdalToolbox) LoadAOI(store, site string) (aoi AOI, err error) {
	log.Info(g.logTag+"load aoi", zap.String("store", store), zap.String("site", site))
	if _, err = os.Stat(store); err != nil {
		err = fmt.Errorf("%w: %s", ErrAoiStoreNotFound, store)
		return
	}
	driver := gdal.OGRDriverByName(GPKG_DRIVER_NAME)
	ds, ok := driver.Open(store, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	for i, n := 0, ds.LayerCount(); i < n; i++ {
		layer := ds.LayerByIndex(i)
		if layer.Name() == site {
			return g.dissolveLayer(layer, site)
		}
	}
	err = fmt.Errorf("%w: no layer %q in %s", ErrAoiLayerNotFound, site, store)
	return
}

// LoadAOIFromShapefile is the fallback for deliveries where a site arrives as
// a standalone shapefile instead of a GeoPackage layer. utf8 reports whether
// the .cpg sidecar declared UTF-8 text; anything else is treated as GBK.
func (g *GdalToolbox) LoadAOIFromShapefile(shp, site string, utf8 bool) (aoi AOI, err error) {
	log.Info(g.logTag+"load aoi from shp", zap.String("shp", shp), zap.String("site", site), zap.Bool("utf8", utf8))
	if _, err = os.Stat(shp); err != nil {
		err = fmt.Errorf("%w: %s", ErrAoiStoreNotFound, shp)
		return
	}
	name := utils.GetFilenameWithoutExt(shp)
	if !utf8 {
		if dec, e := utils.GbkStrToUtf8(name); e == nil {
			name = dec
		}
	}
	if name != site {
		err = fmt.Errorf("%w: shp %q does not match site %q", ErrAoiLayerNotFound, name, site)
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	return g.dissolveLayer(ds.LayerByIndex(0), site)
}

// LoadAOIFromZip extracts a zipped shapefile delivery into a scratch
// directory and loads the site AOI from it. The delivery zip is consumed.
func (g *GdalToolbox) LoadAOIFromZip(zipFile, site string) (aoi AOI, err error) {
	if _, err = os.Stat(zipFile); err != nil {
		err = fmt.Errorf("%w: %s", ErrAoiStoreNotFound, zipFile)
		return
	}
	dir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)
	shp, utf8, err := utils.GetShpInZip(zipFile, dir)
	if err != nil {
		return
	}
	return g.LoadAOIFromShapefile(shp, site, utf8)
}

// dissolveLayer unions every feature geometry of the layer into one polygon,
// discarding attributes.
func (g *GdalToolbox) dissolveLayer(layer gdal.Layer, site string) (aoi AOI, err error) {
	srid, err := g.getSrid(layer.SpatialReference())
	if err != nil {
		return
	}
	var (
		ret     = gdal.Create(gdal.GT_Polygon)
		feature *gdal.Feature
		cnt     int
		gc      = []destroyable{ret}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		ret = ret.Union(feature.Geometry())
		gc = append(gc, ret)
		cnt++
	}
	if cnt == 0 {
		err = fmt.Errorf("%w: layer %q", ErrAoiEmptyLayer, site)
		return
	}
	aoi.Site = site
	aoi.Srid = srid
	aoi.Geom, err = ret.ToWKB()
	log.Info(g.logTag+"aoi dissolved", zap.String("site", site), zap.Int("features", cnt), zap.Int("srid", srid))
	return
}
