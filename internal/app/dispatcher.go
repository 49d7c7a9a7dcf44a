package app

import (
	"time"

	"github.com/spf13/afero"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/dispatch"
	"pdfdispatch/internal/infra/chrome"
)

// NewDispatcher wires the registry, workspace and runners described by cfg.
func NewDispatcher(cfg config.Config) (*dispatch.Dispatcher, error) {
	fs := afero.NewOsFs()

	registry, err := dispatch.NewRegistryFromConfig(fs, cfg)
	if err != nil {
		return nil, err
	}
	workspace, err := dispatch.NewWorkspace(fs, cfg.Dispatch.WorkDir)
	if err != nil {
		return nil, err
	}

	runners := map[string]dispatch.Runner{
		dispatch.EngineExec:     dispatch.ExecRunner{WaitDelay: 5 * time.Second},
		dispatch.EngineChromedp: chrome.NewRenderer(cfg.Chrome),
	}

	return dispatch.New(fs, dispatch.Options{
		Registry:    registry,
		Workspace:   workspace,
		Executor:    dispatch.NewExecutor(fs, cfg.Dispatch.Timeout, runners),
		KeepFiles:   cfg.Dispatch.KeepFiles,
		MaxPDFBytes: cfg.Dispatch.MaxPDFBytes,
	}), nil
}
