package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// scrollScript performs a bounded auto-scroll to trigger lazy-loaded content
// in client-rendered pages. Fixed step, fixed iteration cap, early stop once
// the accumulated distance covers the page height.
const scrollScript = `new Promise((resolve) => {
	let total = 0;
	let scrolls = 0;
	const distance = 800;
	const maxScrolls = 20;
	const timer = setInterval(() => {
		window.scrollBy(0, distance);
		total += distance;
		scrolls++;
		if (total >= document.body.scrollHeight || scrolls >= maxScrolls) {
			clearInterval(timer);
			resolve();
		}
	}, 100);
})`

// renderPage loads a page in an isolated headless browser session and
// returns the fully rendered HTML. The session is scoped to this call: the
// deferred cancels tear the browser down on every exit path.
//
// Image, stylesheet, font, and media subresource loads are failed at the
// fetch layer for speed; only the DOM and the scripts that build it matter
// here.
func renderPage(ctx context.Context, pageURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(userAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	chromedp.ListenTarget(browserCtx, func(ev any) {
		if paused, ok := ev.(*fetch.EventRequestPaused); ok {
			go blockOrContinue(browserCtx, paused)
		}
	})

	navCtx, cancelNav := context.WithTimeout(browserCtx, navTimeout)
	defer cancelNav()

	// Wait only for DOM construction; full load stalls on ad and analytics
	// requests that contribute nothing to the text.
	var snapshot string
	err := chromedp.Run(navCtx,
		fetch.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		hydrationGrace(idleGrace),
		chromedp.Evaluate(scrollScript, nil, awaitPromise),
		chromedp.OuterHTML("html", &snapshot, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return snapshot, nil
}

// blockOrContinue fails paused requests for cosmetic resource types and lets
// everything else through.
func blockOrContinue(ctx context.Context, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(ctx)
	execCtx := cdp.WithExecutor(ctx, c.Target)

	switch ev.ResourceType {
	case network.ResourceTypeImage,
		network.ResourceTypeStylesheet,
		network.ResourceTypeFont,
		network.ResourceTypeMedia:
		_ = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
	default:
		_ = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
	}
}

// hydrationGrace waits briefly for client-side hydration after DOM
// readiness. The wait is best-effort: expiry is the normal outcome, and
// cancellation of the page context is surfaced so navigation timeouts still
// abort the run.
func hydrationGrace(d time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		graceCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		<-graceCtx.Done()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})
}

// awaitPromise makes Evaluate resolve the scroll promise instead of
// returning the pending promise object.
func awaitPromise(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
