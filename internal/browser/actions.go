package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// chromedp action builders used by chromedpPage.

func navigateAction(url string) chromedp.Action {
	return chromedp.Navigate(url)
}

func queryAllAction(selector string, res *[]Element) chromedp.Action {
	return chromedp.Evaluate(queryAllExpr(selector), res)
}

func countAction(selector string, res *int) chromedp.Action {
	return chromedp.Evaluate(countExpr(selector), res)
}

func outerHTMLAction(selector string, res *string) chromedp.Action {
	return chromedp.Evaluate(outerHTMLExpr(selector), res)
}

func clickAction(selector string) chromedp.Action {
	return chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	}
}

// fillAction replaces the field's content: select everything, then type
// over the selection.
func fillAction(selector, value string) chromedp.Action {
	var focused bool
	return chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.Evaluate(selectTextExpr(selector), &focused),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if value == "" {
				return chromedp.KeyEvent("\b").Do(ctx)
			}
			return chromedp.KeyEvent(value).Do(ctx)
		}),
	}
}

func pollAction(conds []Condition, interval, timeout time.Duration, res *int) chromedp.Action {
	return chromedp.Poll(conditionsExpr(conds), res,
		chromedp.WithPollingInterval(interval),
		chromedp.WithPollingTimeout(timeout),
	)
}

func stampAction(token string) chromedp.Action {
	var ok bool
	return chromedp.Evaluate(stampExpr(token), &ok)
}

func scrollTopAction() chromedp.Action {
	var ok bool
	return chromedp.Evaluate(scrollTopExpr, &ok)
}

func clearCookiesAction() chromedp.Action {
	return network.ClearBrowserCookies()
}

func screenshotAction(quality int, res *[]byte) chromedp.Action {
	return chromedp.FullScreenshot(res, quality)
}
