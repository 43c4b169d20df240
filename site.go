package dtmlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/egmgeo/dtmlib/log"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Pipeline drives the site→tile fan-out: per tile it clips the raw DTM to
// the site AOI, shades the clipped DTM and coarsens it to the target grid.
type Pipeline struct {
	g      *GdalToolbox
	cfg    PipelineConfig
	logTag string
}

// RunReport collects one TileResult per attempted tile, plus site-level
// entries for AOI loads that failed.
type RunReport struct {
	Results []TileResult
}

func (r *RunReport) add(res TileResult) {
	r.Results = append(r.Results, res)
}

// Failed returns the results that carry an error.
func (r *RunReport) Failed() (failed []TileResult) {
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return
}

// Err folds all recorded failures into one error, nil when everything
// succeeded.
func (r *RunReport) Err() (err error) {
	for _, res := range r.Results {
		if res.Err != nil {
			err = multierr.Append(err, fmt.Errorf("site %s tile %q stage %s: %w", res.Site, res.Tile, res.Stage, res.Err))
		}
	}
	return
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.TargetRes == 0 {
		cfg.TargetRes = DEFAULT_TARGET_RES
	}
	if cfg.Azimuth == 0 {
		cfg.Azimuth = DEFAULT_AZIMUTH
	}
	if cfg.Altitude == 0 {
		cfg.Altitude = DEFAULT_ALTITUDE
	}
	return &Pipeline{
		g:      NewGdalToolbox(cfg.TmpDir),
		cfg:    cfg,
		logTag: "Pipeline:",
	}
}

// Run processes every configured site to completion. Geometric failures of
// one tile are recorded in the report and its siblings continue; a missing
// tile file means the site→tile mapping itself is wrong and aborts the run.
func (p *Pipeline) Run() (rep *RunReport, err error) {
	rep = &RunReport{}
	for _, site := range p.cfg.Sites {
		if err = p.processSite(site, rep); err != nil {
			if errors.Is(err, ErrMissingTile) {
				log.Error(p.logTag+"run aborted", zap.String("site", site.Name), zap.Error(err))
				return
			}
			// AOI problems are fatal for this site only
			log.Error(p.logTag+"site failed", zap.String("site", site.Name), zap.Error(err))
			rep.add(TileResult{Site: site.Name, Stage: StageAOI, Err: err})
			err = nil
		}
	}
	return
}

func (p *Pipeline) processSite(site SiteConfig, rep *RunReport) (err error) {
	log.Info(p.logTag+"processing site", zap.String("site", site.Name), zap.Strings("tiles", site.Tiles))
	aoi, err := p.g.LoadAOI(p.cfg.AoiStore, site.Name)
	if err != nil {
		return
	}
	// stat every tile file up front: a hole in the mapping aborts the site
	// before any output is written
	tilePaths := make([]string, len(site.Tiles))
	for i, code := range site.Tiles {
		tp := filepath.Join(p.cfg.RawTileDir, code+FILE_EXT_TIF)
		if _, e := os.Stat(tp); e != nil {
			return fmt.Errorf("%w: site %s, tile %s (%s)", ErrMissingTile, site.Name, code, tp)
		}
		tilePaths[i] = tp
	}
	outDir := filepath.Join(p.cfg.OutDir, site.Name)
	for i, code := range site.Tiles {
		res := p.processTile(site.Name, code, tilePaths[i], outDir, aoi)
		if res.Err != nil {
			log.Warn(p.logTag+"tile failed", zap.String("site", site.Name), zap.String("tile", code),
				zap.String("stage", res.Stage), zap.Error(res.Err))
		}
		rep.add(res)
	}
	return
}

func (p *Pipeline) processTile(site, tile, tif, outDir string, aoi AOI) (res TileResult) {
	res = TileResult{Site: site, Tile: tile}
	info, err := p.g.GetRasterInfo(tif)
	if err != nil {
		res.Stage = StageClip
		res.Err = err
		return
	}
	srcLabel := resLabel(info.PixelSizeX())

	clipped := filepath.Join(outDir, fmt.Sprintf(CLIPPED_DTM_NAME, site, tile, srcLabel))
	if err = p.g.ClipRasterToAOI(tif, aoi, clipped); err != nil {
		res.Stage = StageClip
		res.Err = err
		return
	}
	res.Outputs = append(res.Outputs, clipped)

	shaded := filepath.Join(outDir, fmt.Sprintf(HILLSHADE_NAME, site, tile, srcLabel))
	if err = p.g.Hillshade(clipped, shaded, p.cfg.Azimuth, p.cfg.Altitude); err != nil {
		res.Stage = StageShade
		res.Err = err
		return
	}
	res.Outputs = append(res.Outputs, shaded)

	coarse := filepath.Join(outDir, fmt.Sprintf(COARSE_DTM_NAME, site, tile, resLabel(p.cfg.TargetRes)))
	if err = p.g.Resample(clipped, coarse, p.cfg.TargetRes); err != nil {
		// clip and hillshade outputs stand even when coarsening fails
		res.Stage = StageResample
		res.Err = err
		return
	}
	res.Outputs = append(res.Outputs, coarse)
	return
}
