package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/afero"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/domain"
)

const (
	// EngineExec runs the tool as an external process.
	EngineExec = "exec"
	// EngineChromedp renders in-process through headless Chrome.
	EngineChromedp = "chromedp"

	placeholderInput  = "{input}"
	placeholderOutput = "{output}"
)

// ToolSpec is the invocation template of one tool.
type ToolSpec struct {
	ID      string
	Program string
	Args    []string
	// Probe, when set, is an install path that must exist for the tool to be offered.
	Probe  string
	Engine string
	// IgnoreStdoutErrors disables the "error" substring check for tools that
	// print harmless text containing that word.
	IgnoreStdoutErrors bool
}

// Optional reports whether the tool depends on a probed installation.
func (s ToolSpec) Optional() bool {
	return s.Probe != ""
}

// Invocation substitutes the input and output paths into the template.
func (s ToolSpec) Invocation(inputPath, outputPath string) domain.Invocation {
	r := strings.NewReplacer(placeholderInput, inputPath, placeholderOutput, outputPath)
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = r.Replace(a)
	}
	return domain.Invocation{
		Tool:       s.ID,
		Program:    s.Program,
		Args:       args,
		InputPath:  inputPath,
		OutputPath: outputPath,
	}
}

// DefaultToolConfigs is the tool table used when the configuration lists none.
func DefaultToolConfigs() []config.ToolConfig {
	return []config.ToolConfig{
		{ID: "pdfreactor", Command: "java -jar /opt/PDFreactor/lib/pdfreactor.jar -i {input} -o {output}"},
		{ID: "prince", Command: "prince {input} -o {output}"},
		{ID: "vivliostyle", Command: "vivliostyle build {input} -o {output}"},
		{ID: "weasyprint", Command: "weasyprint {input} {output}"},
		{ID: "pagedjs", Command: "pagedjs-cli {input} -o {output}", Probe: "/usr/local/bin/pagedjs-cli"},
		{ID: "ahformatter", Command: "/opt/AHFormatter/run.sh -x 4 -d {input} -o {output}", Probe: "/opt/AHFormatter"},
		{ID: "bfopublisher", Command: "java -jar /opt/bfopublisher.jar --format pdf --output {output} {input}", Probe: "/opt/bfopublisher.jar"},
	}
}

// SpecFromConfig parses a configured command template into a ToolSpec.
func SpecFromConfig(tc config.ToolConfig) (ToolSpec, error) {
	spec := ToolSpec{
		ID:                 tc.ID,
		Probe:              tc.Probe,
		Engine:             tc.Engine,
		IgnoreStdoutErrors: tc.IgnoreStdoutErrors,
	}
	if spec.Engine == "" {
		spec.Engine = EngineExec
	}
	if spec.Engine != EngineExec {
		return spec, nil
	}

	parts, err := shlex.Split(tc.Command)
	if err != nil {
		return ToolSpec{}, fmt.Errorf("tool %s: parse command: %w", tc.ID, err)
	}
	if len(parts) == 0 {
		return ToolSpec{}, fmt.Errorf("tool %s: empty command", tc.ID)
	}
	spec.Program = parts[0]
	spec.Args = parts[1:]
	return spec, nil
}

// Registry holds the process-wide, read-only tool table.
type Registry struct {
	fs    afero.Fs
	specs map[string]ToolSpec
	order []string
}

// NewRegistry builds a registry over specs. fs is where optional tools are probed.
func NewRegistry(fs afero.Fs, specs []ToolSpec) (*Registry, error) {
	r := &Registry{fs: fs, specs: make(map[string]ToolSpec, len(specs))}
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("tool with empty id")
		}
		if _, dup := r.specs[s.ID]; dup {
			return nil, fmt.Errorf("tool %s registered twice", s.ID)
		}
		if s.Engine != EngineExec && s.Engine != EngineChromedp {
			return nil, fmt.Errorf("tool %s has unknown engine %q", s.ID, s.Engine)
		}
		if s.Engine == EngineExec && s.Program == "" {
			return nil, fmt.Errorf("tool %s has no program", s.ID)
		}
		r.specs[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return r, nil
}

// NewRegistryFromConfig builds the registry from configuration, falling back to
// the default tool table.
func NewRegistryFromConfig(fs afero.Fs, cfg config.Config) (*Registry, error) {
	tools := cfg.Tools
	if len(tools) == 0 {
		tools = DefaultToolConfigs()
	}
	if cfg.Chrome.Path != "" && !hasTool(tools, "chrome") {
		tools = append(tools, config.ToolConfig{ID: "chrome", Engine: EngineChromedp, Probe: cfg.Chrome.Path})
	}

	specs := make([]ToolSpec, 0, len(tools))
	for _, tc := range tools {
		spec, err := SpecFromConfig(tc)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return NewRegistry(fs, specs)
}

func hasTool(tools []config.ToolConfig, id string) bool {
	for _, t := range tools {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Resolve returns the spec for id. Unknown tools, and optional tools whose
// installation is currently absent, yield domain.ErrUnsupportedTool.
func (r *Registry) Resolve(id string) (ToolSpec, error) {
	spec, ok := r.specs[id]
	if !ok || !probe(r.fs, spec) {
		return ToolSpec{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedTool, id)
	}
	return spec, nil
}

// Spec returns the registered spec for id without probing.
func (r *Registry) Spec(id string) (ToolSpec, bool) {
	spec, ok := r.specs[id]
	return spec, ok
}

// Available re-probes the filesystem and returns the tools usable right now,
// in registration order.
func (r *Registry) Available() []string {
	specs := make([]ToolSpec, 0, len(r.order))
	for _, id := range r.order {
		specs = append(specs, r.specs[id])
	}
	return ProbeAvailableTools(r.fs, specs)
}

// IDs returns every registered tool, available or not, sorted.
func (r *Registry) IDs() []string {
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

// ProbeAvailableTools is a pure function of fs: baseline tools are always
// available, optional ones only while their probe path exists.
func ProbeAvailableTools(fs afero.Fs, specs []ToolSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		if probe(fs, s) {
			out = append(out, s.ID)
		}
	}
	return out
}

func probe(fs afero.Fs, s ToolSpec) bool {
	if !s.Optional() {
		return true
	}
	ok, err := afero.Exists(fs, s.Probe)
	return err == nil && ok
}
