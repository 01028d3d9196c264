// Package runner orchestrates the projector post-processing pipeline:
// load band data, build projector groups, orthogonalize and persist results.
package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/projectors"
	"github.com/bandproj/bandproj/pkg/report"
	"github.com/bandproj/bandproj/pkg/state"
	"github.com/bandproj/bandproj/pkg/types"
)

// Parameters whose change between runs invalidates previously stored results.
var criticalParameters = []string{"shells", "groups"}

// Runner executes one batch run of the pipeline. Every process runs the
// numeric pipeline on its own copy of the data; only the coordinator touches
// the state store.
type Runner struct {
	cfg         *types.Config
	configPath  string
	projectRoot string
	log         logger.Logger
	rep         report.Reporter
	store       *state.Store
	coordinator bool
}

// New creates a runner. store may be nil, in which case no state is
// persisted or audited regardless of role.
func New(cfg *types.Config, configPath, projectRoot string, log logger.Logger, rep report.Reporter, store *state.Store, coordinator bool) *Runner {
	return &Runner{
		cfg:         cfg,
		configPath:  configPath,
		projectRoot: projectRoot,
		log:         log,
		rep:         rep,
		store:       store,
		coordinator: coordinator,
	}
}

// Run executes the pipeline and returns per-group results. The numeric steps
// are synchronous and deterministic; ctx is only consulted between groups.
func (r *Runner) Run(ctx context.Context) ([]state.GroupResult, error) {
	stateName := state.StateName(r.configPath)
	params := map[string]interface{}{
		"dataFile": r.cfg.DataFile,
		"shells":   r.cfg.Shells,
		"groups":   r.cfg.Groups,
	}

	if r.store != nil && r.coordinator {
		if err := r.store.AuditParameters(stateName, params, criticalParameters, r.rep); err != nil {
			return nil, err
		}
	}

	dataPath := r.cfg.DataFile
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(r.projectRoot, dataPath)
	}
	data, err := LoadBandData(dataPath, r.cfg.Shells)
	if err != nil {
		r.rep.Error("failed to load band data", logger.WithField("path", dataPath))
		return nil, err
	}

	r.rep.Statement("band data loaded",
		logger.WithField("kpoints", data.Eigenvalues.NK),
		logger.WithField("bands", data.Eigenvalues.NBand),
		logger.WithField("spins", data.Eigenvalues.NSpin),
		logger.WithField("shells", len(data.Shells)))

	results := make([]state.GroupResult, 0, len(r.cfg.Groups))
	for i, grCfg := range r.cfg.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := r.cfg.GroupName(i)

		group, err := projectors.NewGroup(grCfg, name, data.Shells, data.Eigenvalues, r.log)
		if err != nil {
			r.rep.Error("group construction failed", logger.WithField("group", name))
			return nil, err
		}

		if err := group.Orthogonalize(); err != nil {
			r.rep.Error("orthogonalization failed", logger.WithField("group", name))
			return nil, err
		}

		nelect, err := group.NelectWindow(data.Occupations, data.KWeights)
		if err != nil {
			return nil, err
		}

		win := group.Window()
		r.rep.Statement("group processed",
			logger.WithField("group", name),
			logger.WithField("ib_min", win.IBMin),
			logger.WithField("ib_max", win.IBMax),
			logger.WithField("nelect", fmt.Sprintf("%.6f", nelect)))

		results = append(results, state.GroupResult{
			Name:   name,
			IBMin:  win.IBMin,
			IBMax:  win.IBMax,
			NBMax:  win.NBMax(),
			Nelect: nelect,
		})
	}

	if r.store != nil && r.coordinator {
		st := state.NewRunState(r.configPath, params)
		st.Groups = results
		if err := r.store.Save(stateName, st); err != nil {
			return nil, err
		}
	}

	return results, nil
}
