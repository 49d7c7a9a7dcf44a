package dispatch

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/domain"
)

func defaultRegistry(t *testing.T, fs afero.Fs) *Registry {
	t.Helper()
	reg, err := NewRegistryFromConfig(fs, config.Config{})
	require.NoError(t, err)
	return reg
}

func TestResolve_BaselineToolsHaveTemplates(t *testing.T) {
	reg := defaultRegistry(t, afero.NewMemMapFs())

	for _, id := range []string{"pdfreactor", "prince", "vivliostyle", "weasyprint"} {
		spec, err := reg.Resolve(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, spec.Program, id)
		assert.NotEmpty(t, spec.Args, id)
	}
}

func TestResolve_UnknownToolIsUnsupported(t *testing.T) {
	reg := defaultRegistry(t, afero.NewMemMapFs())

	for _, id := range []string{"", "wkhtmltopdf", "PRINCE", "../prince"} {
		_, err := reg.Resolve(id)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedTool), "tool %q: %v", id, err)
	}
}

func TestResolve_OptionalToolFollowsProbe(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := defaultRegistry(t, fs)

	_, err := reg.Resolve("ahformatter")
	assert.ErrorIs(t, err, domain.ErrUnsupportedTool)

	require.NoError(t, fs.MkdirAll("/opt/AHFormatter", 0o755))
	spec, err := reg.Resolve("ahformatter")
	require.NoError(t, err)
	assert.Equal(t, "/opt/AHFormatter/run.sh", spec.Program)
}

func TestAvailable_ReprobesOnEveryCall(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := defaultRegistry(t, fs)

	assert.Equal(t, []string{"pdfreactor", "prince", "vivliostyle", "weasyprint"}, reg.Available())

	require.NoError(t, afero.WriteFile(fs, "/opt/bfopublisher.jar", []byte("jar"), 0o644))
	assert.Contains(t, reg.Available(), "bfopublisher")

	require.NoError(t, fs.Remove("/opt/bfopublisher.jar"))
	assert.NotContains(t, reg.Available(), "bfopublisher")
}

func TestInvocation_SubstitutesPlaceholders(t *testing.T) {
	reg := defaultRegistry(t, afero.NewMemMapFs())

	tests := []struct {
		tool    string
		program string
		args    []string
	}{
		{"pdfreactor", "java", []string{"-jar", "/opt/PDFreactor/lib/pdfreactor.jar", "-i", "/w/in.html", "-o", "/w/out.pdf"}},
		{"prince", "prince", []string{"/w/in.html", "-o", "/w/out.pdf"}},
		{"vivliostyle", "vivliostyle", []string{"build", "/w/in.html", "-o", "/w/out.pdf"}},
		{"weasyprint", "weasyprint", []string{"/w/in.html", "/w/out.pdf"}},
	}
	for _, tc := range tests {
		t.Run(tc.tool, func(t *testing.T) {
			spec, err := reg.Resolve(tc.tool)
			require.NoError(t, err)
			inv := spec.Invocation("/w/in.html", "/w/out.pdf")
			assert.Equal(t, tc.program, inv.Program)
			assert.Equal(t, tc.args, inv.Args)
		})
	}

	bfo, err := SpecFromConfig(DefaultToolConfigs()[6])
	require.NoError(t, err)
	inv := bfo.Invocation("/w/in.html", "/w/out.pdf")
	assert.Equal(t, []string{"-jar", "/opt/bfopublisher.jar", "--format", "pdf", "--output", "/w/out.pdf", "/w/in.html"}, inv.Args)
}

func TestSpecFromConfig_QuotedArgumentsAndEngines(t *testing.T) {
	spec, err := SpecFromConfig(config.ToolConfig{ID: "custom", Command: `render --title "My Report" --out={output} {input}`})
	require.NoError(t, err)
	assert.Equal(t, EngineExec, spec.Engine)
	assert.Equal(t, []string{"--title", "My Report", "--out={output}", "{input}"}, spec.Args)
	assert.Equal(t, "--out=/o.pdf", spec.Invocation("/i.html", "/o.pdf").Args[2])

	chrome, err := SpecFromConfig(config.ToolConfig{ID: "chrome", Engine: EngineChromedp, Probe: "/usr/bin/chromium"})
	require.NoError(t, err)
	assert.Empty(t, chrome.Program)
	assert.True(t, chrome.Optional())

	_, err = SpecFromConfig(config.ToolConfig{ID: "broken", Command: `render "unterminated`})
	assert.Error(t, err)
}

func TestNewRegistry_RejectsInvalidTables(t *testing.T) {
	_, err := NewRegistry(afero.NewMemMapFs(), []ToolSpec{{ID: "a", Engine: EngineExec, Program: "a"}, {ID: "a", Engine: EngineExec, Program: "a"}})
	assert.Error(t, err)

	_, err = NewRegistry(afero.NewMemMapFs(), []ToolSpec{{ID: "a", Engine: EngineExec}})
	assert.Error(t, err)

	_, err = NewRegistryFromConfig(afero.NewMemMapFs(), config.Config{Tools: []config.ToolConfig{{ID: "x", Engine: "bogus"}}})
	assert.ErrorContains(t, err, `unknown engine "bogus"`)
}

func TestNewRegistryFromConfig_AddsChromeWhenConfigured(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Config{Chrome: config.ChromeConfig{Path: "/usr/bin/chromium"}}
	reg, err := NewRegistryFromConfig(fs, cfg)
	require.NoError(t, err)
	assert.NotContains(t, reg.Available(), "chrome")
	assert.Contains(t, reg.IDs(), "chrome")

	require.NoError(t, afero.WriteFile(fs, "/usr/bin/chromium", nil, 0o755))
	spec, err := reg.Resolve("chrome")
	require.NoError(t, err)
	assert.Equal(t, EngineChromedp, spec.Engine)
}

func TestSpec_LooksUpWithoutProbing(t *testing.T) {
	r := defaultRegistry(t, afero.NewMemMapFs())

	spec, ok := r.Spec("pagedjs")
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/pagedjs-cli", spec.Probe)

	_, err := r.Resolve("pagedjs")
	assert.ErrorIs(t, err, domain.ErrUnsupportedTool)

	_, ok = r.Spec("wkhtmltopdf")
	assert.False(t, ok)
}
