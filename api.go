package dtmlib

import "strconv"

type GdalGeo = []byte

// AOI is one site's area of interest: a single dissolved polygon as WKB,
// in the CRS declared by the vector store it was loaded from.
type AOI struct {
	Site string
	Geom GdalGeo
	Srid int
}

// SiteConfig maps one named site to its ordered LiDAR tile codes.
// Each code must have a file {code}.tif under the raw tile root.
type SiteConfig struct {
	Name  string
	Tiles []string
}

// PipelineConfig carries the filesystem roots and processing parameters of
// one run. Zero-valued parameters fall back to the package defaults.
type PipelineConfig struct {
	RawTileDir string
	AoiStore   string
	OutDir     string
	TmpDir     string

	TargetRes float64
	Azimuth   float64
	Altitude  float64

	Sites []SiteConfig
}

// TileResult is the outcome of one attempted tile (or of a site-level AOI
// load when Tile is empty). Err is nil on success.
type TileResult struct {
	Site    string
	Tile    string
	Stage   string
	Outputs []string
	Err     error
}

func resLabel(res float64) string {
	return strconv.FormatFloat(res, 'f', -1, 64) + "m"
}
