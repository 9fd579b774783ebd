// Package snapshot persists page dumps for post-mortem diagnosis of
// fatal booking failures.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/court-racer/internal/browser"
)

// Recorder writes one HTML and one PNG dump per capture into Dir.
// Every operation is best-effort: a capture that fails is logged and
// forgotten, never propagated, so it cannot mask the error that
// triggered it.
type Recorder struct {
	Dir string
	Log *slog.Logger
}

func New(dir string, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{Dir: dir, Log: log}
}

// Capture dumps the page under <label>-<nanos>.html/.png and logs the
// paths together with a short summary of what the page showed.
func (r *Recorder) Capture(ctx context.Context, page browser.Page, label string) {
	if r == nil || r.Dir == "" {
		return
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		r.Log.Warn("snapshot dir", slog.String("error", err.Error()))
		return
	}
	base := filepath.Join(r.Dir, fmt.Sprintf("%s-%d", label, time.Now().UnixNano()))

	var htmlPath, pngPath, summary string
	if html, err := page.HTML(ctx); err == nil && html != "" {
		htmlPath = base + ".html"
		if werr := os.WriteFile(htmlPath, []byte(html), 0o644); werr != nil {
			r.Log.Warn("snapshot html", slog.String("error", werr.Error()))
			htmlPath = ""
		}
		summary = Summarize(html)
	} else if err != nil {
		r.Log.Warn("snapshot html", slog.String("error", err.Error()))
	}
	if png, err := page.Screenshot(ctx); err == nil && len(png) > 0 {
		pngPath = base + ".png"
		if werr := os.WriteFile(pngPath, png, 0o644); werr != nil {
			r.Log.Warn("snapshot png", slog.String("error", werr.Error()))
			pngPath = ""
		}
	} else if err != nil {
		r.Log.Warn("snapshot png", slog.String("error", err.Error()))
	}

	r.Log.Info("page snapshot",
		slog.String("label", label),
		slog.String("html", htmlPath),
		slog.String("png", pngPath),
		slog.String("summary", summary),
	)
}

// Summarize extracts the page title and any visible alert text, so the
// log line alone often says why the flow broke.
func Summarize(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, "title: "+title)
	}
	doc.Find(".alert, .error, [role=alert]").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, "alert: "+text)
		}
	})
	return strings.Join(parts, "; ")
}
