package export

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// percentEncodeForDataURL encodes a string for use in a data URL.
// Unlike url.QueryEscape, spaces become %20 rather than +.
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				fmt.Fprintf(&result, "%%%02X", b)
			}
		}
	}
	return result.String()
}

func chromeAvailable() bool {
	for _, name := range []string{"chromium-browser", "chromium", "google-chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// exportPDF prints the rendered board with headless Chrome. The board is
// landscape so six columns fit on one page.
func exportPDF(ctx context.Context, html string, title string) (*Result, error) {
	if !chromeAvailable() {
		return nil, fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	dataURL := "data:text/html;charset=utf-8," + percentEncodeForDataURL(html)

	var pdfData []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11.0).
				WithMarginTop(0.5).
				WithMarginBottom(0.5).
				WithMarginLeft(0.5).
				WithMarginRight(0.5).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}

	return &Result{
		Data:     pdfData,
		Filename: sanitizeFilename(title) + ".pdf",
		MimeType: "application/pdf",
	}, nil
}

// sanitizeFilename creates a safe filename from a title
func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "board"
	}
	return result
}
