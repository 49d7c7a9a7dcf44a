package dispatch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/domain"
)

// writePDF produces a small but valid PDF so page counting works.
func writePDF(path string, pages int) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, "converted")
	}
	return pdf.OutputFileAndClose(path)
}

// pdfRunner behaves like a well-mannered tool: it writes a PDF to the output path.
func pdfRunner(pages int) RunnerFunc {
	return func(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error) {
		if err := writePDF(inv.OutputPath, pages); err != nil {
			return domain.RunOutput{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return domain.RunOutput{Stdout: "done"}, nil
	}
}

func newTestDispatcher(t *testing.T, runner Runner, opts ...func(*Options)) *Dispatcher {
	t.Helper()
	fs := afero.NewOsFs()
	reg, err := NewRegistryFromConfig(afero.NewMemMapFs(), config.Config{})
	require.NoError(t, err)
	ws, err := NewWorkspace(fs, t.TempDir())
	require.NoError(t, err)

	o := Options{
		Registry:  reg,
		Workspace: ws,
		Executor:  NewExecutor(fs, 5*time.Second, map[string]Runner{EngineExec: runner}),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return New(fs, o)
}

func requestDirs(t *testing.T, d *Dispatcher) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(d.workspace.Root())
	require.NoError(t, err)
	return entries
}
