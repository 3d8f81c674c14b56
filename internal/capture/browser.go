package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// toolVersion is recorded on every artifact row written by the browser.
const toolVersion = "chromedp"

// Rendered holds the three representations one browser visit produces.
type Rendered struct {
	Screenshot []byte
	PDF        []byte
	BodyText   string
}

// Render navigates to url in a headless browser and captures a full-page
// screenshot, a PDF, and the visible body text in a single visit.
// Requires Chrome/Chromium to be installed on the system.
func Render(ctx context.Context, url string, timeout time.Duration) (*Rendered, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var rendered Rendered
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering a moment to settle.
		chromedp.Sleep(2*time.Second),
		chromedp.FullScreenshot(&rendered.Screenshot, 90),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().Do(ctx)
			if err != nil {
				return err
			}
			rendered.PDF = pdf
			return nil
		}),
		chromedp.Text("body", &rendered.BodyText, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}
	return &rendered, nil
}
