package dtmlib

const (
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_JSON = ".json"

	SHP_DRIVER_NAME  = "ESRI Shapefile"
	GPKG_DRIVER_NAME = "GPKG"

	DEFAULT_AZIMUTH    = 315.0
	DEFAULT_ALTITUDE   = 45.0
	DEFAULT_TARGET_RES = 10.0

	// relative tolerance when requiring square pixels
	SQUARE_PIXEL_EPS = 1e-6

	TMP_CUTLINE = "cutline_%s" + FILE_EXT_JSON

	// per-tile output name templates: site, tile, resolution label
	CLIPPED_DTM_NAME = "%s_%s_DTM_%s_clipped" + FILE_EXT_TIF
	HILLSHADE_NAME   = "%s_%s_hillshade_%s" + FILE_EXT_TIF
	COARSE_DTM_NAME  = "%s_%s_DTM_%s" + FILE_EXT_TIF
)

// processing stages, as recorded in TileResult
const (
	StageAOI      = "aoi"
	StageClip     = "clip"
	StageShade    = "hillshade"
	StageResample = "resample"
)
