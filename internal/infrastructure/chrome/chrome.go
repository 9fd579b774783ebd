// Package chrome binds the browser port to a headless (or headful)
// Chrome driven over the DevTools protocol via chromedp.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/example/court-racer/internal/browser"
)

// Browser owns one Chrome process. Pages created from it are separate
// tabs: each worker gets its own tab, never a shared one, because a
// tab's DevTools session is not safe to drive from two goroutines.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// Launch starts Chrome and fails fast if the binary is missing or the
// process dies on startup.
func Launch(ctx context.Context, headless bool) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", headless),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	return &Browser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// NewPage opens a fresh tab.
func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &Page{ctx: tabCtx, cancel: cancel}, nil
}

func (b *Browser) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}

// Page is one Chrome tab implementing browser.Page. All queries go
// through DOM.performSearch with XPath, the one query form every
// selector in the port lowers to.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx, chromedp.Navigate(url))
}

func (p *Page) DiscardExtras(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := chromedp.FromContext(p.ctx)
	infos, err := chromedp.Targets(p.ctx)
	if err != nil {
		return err
	}
	for _, t := range infos {
		if !spawnedBy(t, c.Target.TargetID) {
			continue
		}
		exec := cdp.WithExecutor(p.ctx, c.Browser)
		if err := target.CloseTarget(t.TargetID).Do(exec); err != nil {
			return fmt.Errorf("close extra target: %w", err)
		}
	}
	return nil
}

// spawnedBy reports whether t is a page window that owner opened.
// Target.getTargets is browser-scoped: the list holds every worker's
// tab, and closing a sibling's tab would kill its session mid-race, so
// only windows this tab itself spawned are ever fair game.
func spawnedBy(t *target.Info, owner target.ID) bool {
	return t.Type == "page" && t.TargetID != owner && t.OpenerID == owner
}

func (p *Page) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	nodes, err := p.nodes(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrNotFound)
	}
	return &element{pg: p, node: nodes[0]}, nil
}

func (p *Page) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	nodes, err := p.nodes(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{pg: p, node: n})
	}
	return out, nil
}

func (p *Page) WaitFor(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	nodes, err := p.nodes(ctx, sel, timeout)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrTimedOut)
	}
	return &element{pg: p, node: nodes[0]}, nil
}

// nodes runs the query. With timeout zero it returns whatever matches
// right now; otherwise it blocks until a match or the deadline.
func (p *Page) nodes(ctx context.Context, sel browser.Selector, timeout time.Duration) ([]*cdp.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	query := sel.XPathQuery()
	if timeout <= 0 {
		err := chromedp.Run(p.ctx,
			chromedp.Nodes(query, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
		return nodes, err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	err := chromedp.Run(runCtx, chromedp.Nodes(query, &nodes, chromedp.BySearch))
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrTimedOut)
	}
	return nodes, err
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var html string
	err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf []byte
	err := chromedp.Run(p.ctx, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

func (p *Page) Close() error {
	p.cancel()
	return nil
}

type element struct {
	pg   *Page
	node *cdp.Node
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// Click dispatches a real mouse click on the node's box; the site's
// handlers ignore DOM-level click() on several controls.
func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(e.pg.ctx, chromedp.MouseClickNode(e.node))
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(e.pg.ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var text string
	err := chromedp.Run(e.pg.ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *element) Attr(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.node.AttributeValue(name), nil
}
