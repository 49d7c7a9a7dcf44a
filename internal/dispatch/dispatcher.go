package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"pdfdispatch/internal/domain"
	"pdfdispatch/internal/infra/logging"
)

// Options wires a Dispatcher.
type Options struct {
	Registry  *Registry
	Workspace *Workspace
	Executor  *Executor
	// KeepFiles leaves request directories on disk for debugging.
	KeepFiles bool
	// MaxPDFBytes rejects larger outputs; zero means no limit.
	MaxPDFBytes int
}

// Dispatcher runs one conversion request end to end: resolve, persist,
// execute, read back.
type Dispatcher struct {
	registry    *Registry
	workspace   *Workspace
	executor    *Executor
	fs          afero.Fs
	keepFiles   bool
	maxPDFBytes int
}

func New(fs afero.Fs, opts Options) *Dispatcher {
	return &Dispatcher{
		registry:    opts.Registry,
		workspace:   opts.Workspace,
		executor:    opts.Executor,
		fs:          fs,
		keepFiles:   opts.KeepFiles,
		maxPDFBytes: opts.MaxPDFBytes,
	}
}

// AvailableTools re-probes and lists the tools usable right now.
func (d *Dispatcher) AvailableTools() []string {
	return d.registry.Available()
}

// Registry exposes the tool table.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Convert resolves req.Tool, persists the upload and runs the tool. No file is
// written and nothing is executed for an unsupported tool.
func (d *Dispatcher) Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConvertedPDF, error) {
	if req.Tool == "" {
		return nil, domain.ErrMissingTool
	}
	if req.Body == nil {
		return nil, domain.ErrMissingInput
	}

	spec, err := d.registry.Resolve(req.Tool)
	if err != nil {
		return nil, err
	}

	upload, err := d.workspace.Persist(req.Filename, req.Body)
	if err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}
	if !d.keepFiles {
		defer func() {
			if err := d.workspace.Remove(upload); err != nil {
				logging.Warn("Failed to remove request dir", "dir", upload.Dir, "error", err)
			}
		}()
	}

	outputPath, _, err := d.executor.Execute(ctx, spec, upload)
	if err != nil {
		return nil, err
	}

	data, err := d.readOutput(outputPath)
	if err != nil {
		return nil, err
	}

	pages, err := PageCount(data)
	if err != nil {
		logging.Warn("Could not read page count", "tool", spec.ID, "error", err)
		pages = 0
	}

	return &domain.ConvertedPDF{
		Tool:     spec.ID,
		Filename: filepath.Base(outputPath),
		Data:     data,
		Pages:    pages,
	}, nil
}

func (d *Dispatcher) readOutput(path string) ([]byte, error) {
	if d.maxPDFBytes > 0 {
		info, err := d.fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat output: %w", err)
		}
		if info.Size() > int64(d.maxPDFBytes) {
			return nil, domain.ErrOutputTooLarge
		}
	}
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}

// IsClientError reports whether err stems from the request rather than the tool.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedTool) ||
		errors.Is(err, domain.ErrMissingTool) ||
		errors.Is(err, domain.ErrMissingInput)
}
