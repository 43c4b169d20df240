package dtmlib

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrVoidSrid         = errors.New("spatial ref with void srid")
	ErrInvalidWKT       = errors.New("invalid WKT")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrTifReadFailed    = errors.New("tif band read failed")
	ErrTifWriteFailed   = errors.New("tif band write failed")

	// AOI store problems are fatal for the enclosing site
	ErrAoiStoreNotFound = errors.New("aoi store not found")
	ErrAoiLayerNotFound = errors.New("aoi layer not found")
	ErrAoiEmptyLayer    = errors.New("aoi layer has no features")

	// recoverable per tile: the AOI and the raster do not intersect
	ErrNoOverlap = errors.New("aoi does not overlap raster")

	// fatal for the run: the site->tile mapping names a file that is absent
	ErrMissingTile = errors.New("configured tile file missing")

	// recoverable per tile: degenerate resampling parameters
	ErrInvalidResolution = errors.New("invalid target resolution")
	ErrNonSquarePixels   = errors.New("source pixels are not square")
)
