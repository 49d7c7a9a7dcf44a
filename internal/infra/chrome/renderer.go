package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/domain"
)

// PaperSize is in inches.
type PaperSize struct {
	Width  float64
	Height float64
}

var A4 = PaperSize{Width: 8.27, Height: 11.69}

const defaultMargin = 0.4

// Renderer prints the uploaded HTML file to PDF with headless Chrome. It
// satisfies the dispatcher's Runner contract: render failures are reported
// as a nonzero exit with the error text on stderr.
type Renderer struct {
	cfg    config.ChromeConfig
	paper  PaperSize
	margin float64
}

func NewRenderer(cfg config.ChromeConfig) *Renderer {
	return &Renderer{cfg: cfg, paper: A4, margin: defaultMargin}
}

func (r *Renderer) Run(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error) {
	pdf, err := r.render(ctx, "file://"+inv.InputPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.RunOutput{ExitCode: -1}, ctxErr
		}
		return domain.RunOutput{ExitCode: 1, Stderr: err.Error()}, nil
	}
	if err := os.WriteFile(inv.OutputPath, pdf, 0o644); err != nil {
		return domain.RunOutput{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return domain.RunOutput{}, nil
}

// render starts a dedicated Chrome instance for one document.
func (r *Renderer) render(ctx context.Context, url string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		// Force software rendering; minimal containers have no GPU.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if r.cfg.Path != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(r.cfg.Path))
	}
	if r.cfg.NoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	return printToPDF(chromeCtx, url, r.paper, r.margin)
}

func printToPDF(ctx context.Context, url string, paper PaperSize, margin float64) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paper.Width).
				WithPaperHeight(paper.Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(pdfBuf) == 0 {
		return nil, errors.New("chrome returned an empty PDF")
	}
	return pdfBuf, nil
}
