package dtmlib

import (
	"testing"

	godal "github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
)

const testSrid = 27700

func testRef(t *testing.T, srid int) gdal.SpatialReference {
	t.Helper()
	ref := gdal.CreateSpatialReference("")
	if err := ref.FromEPSG(srid); err != nil {
		t.Fatalf("ref from epsg %d: %v", srid, err)
	}
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	return ref
}

func testProjWkt(t *testing.T, srid int) string {
	t.Helper()
	ref := testRef(t, srid)
	defer ref.Destroy()
	wkt, err := ref.ToWKT()
	if err != nil {
		t.Fatalf("ref to wkt: %v", err)
	}
	return wkt
}

// writeTestDTM creates a single-band Float32 GeoTIFF with square pixels of
// the given size, north-up, with origin at the upper-left corner.
func writeTestDTM(t *testing.T, path string, w, h int, res float64, originX, originY float64,
	nodata float64, hasNodata bool, fill func(r, c int) float64) {
	t.Helper()
	registerOnce.Do(godal.RegisterAll)
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, w, h)
	if err != nil {
		t.Fatalf("create test dtm: %v", err)
	}
	defer ds.Close()
	if err = ds.SetGeoTransform([6]float64{originX, res, 0, originY, 0, -res}); err != nil {
		t.Fatalf("set geotransform: %v", err)
	}
	if err = ds.SetProjection(testProjWkt(t, testSrid)); err != nil {
		t.Fatalf("set projection: %v", err)
	}
	band := ds.Bands()[0]
	if hasNodata {
		if err = band.SetNoData(nodata); err != nil {
			t.Fatalf("set nodata: %v", err)
		}
	}
	buf := make([]float64, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			buf[r*w+c] = fill(r, c)
		}
	}
	if err = band.IO(godal.IOWrite, 0, 0, buf, w, h); err != nil {
		t.Fatalf("write test dtm band: %v", err)
	}
}

// writeTestAOIStore creates a GeoPackage with one polygon layer per map
// entry, each holding the given WKT features.
func writeTestAOIStore(t *testing.T, path string, srid int, layers map[string][]string) {
	t.Helper()
	driver := gdal.OGRDriverByName(GPKG_DRIVER_NAME)
	ds, ok := driver.Create(path, nil)
	if !ok {
		t.Fatal("create test gpkg failed")
	}
	defer ds.Destroy()
	ref := testRef(t, srid)
	defer ref.Destroy()
	for name, wkts := range layers {
		layer := ds.CreateLayer(name, ref, gdal.GT_Polygon, nil)
		def := layer.Definition()
		for _, wkt := range wkts {
			geo, err := gdal.CreateFromWKT(wkt, ref)
			if err != nil {
				t.Fatalf("parse feature wkt: %v", err)
			}
			feature := def.Create()
			if err = feature.SetGeometryDirectly(geo); err != nil {
				t.Fatalf("set feature geometry: %v", err)
			}
			if err = layer.Create(feature); err != nil {
				t.Fatalf("create feature: %v", err)
			}
			feature.Destroy()
		}
	}
}

// readBand reads one whole band of a raster as float64 samples.
func readBand(t *testing.T, path string, idx int) (buf []float64, info RasterInfo) {
	t.Helper()
	g := NewGdalToolbox()
	sds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer sds.Close()
	if info, err = g.rasterInfo(sds); err != nil {
		t.Fatalf("raster info %s: %v", path, err)
	}
	if buf, err = g.readBandFloat(sds, idx); err != nil {
		t.Fatalf("read band %d of %s: %v", idx, path, err)
	}
	return
}
