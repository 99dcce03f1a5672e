package render

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/config"
)

// A4 in inches, as expected by Page.printToPDF.
const (
	a4Width  = 8.27
	a4Height = 11.69
	mmInch   = 25.4
)

// PDFRenderer turns a bundle into PDF bytes.
type PDFRenderer interface {
	PDF(ctx context.Context, b *Bundle) ([]byte, error)
}

// ChromeRenderer prints report HTML through a headless Chrome instance.
// A browser is started per call.
type ChromeRenderer struct {
	timeout  time.Duration
	execPath string
}

// NewChromeRenderer builds a renderer from config. A zero timeout means 30s.
func NewChromeRenderer(cfg config.RenderConfig) *ChromeRenderer {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{timeout: timeout, execPath: cfg.ChromePath}
}

// PDF renders b as an A4 document with a dated header and page numbers.
func (r *ChromeRenderer) PDF(ctx context.Context, b *Bundle) ([]byte, error) {
	html, err := HTML(b)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady(".cover-page", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(HeaderTemplate(b)).
				WithFooterTemplate(FooterTemplate).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(18 / mmInch).
				WithMarginBottom(18 / mmInch).
				WithMarginLeft(16 / mmInch).
				WithMarginRight(16 / mmInch).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, eris.Wrap(err, "render: print pdf")
	}

	zap.L().Debug("render: pdf generated",
		zap.String("report_id", b.ReportID),
		zap.Int("bytes", len(pdf)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pdf, nil
}
