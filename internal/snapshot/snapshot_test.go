package snapshot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/court-racer/internal/browser/browsertest"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCaptureWritesDumps(t *testing.T) {
	dir := t.TempDir()
	page := browsertest.New()
	page.HTMLValue = "<html><head><title>Paris Tennis</title></head><body></body></html>"
	page.PNGValue = []byte{0x89, 'P', 'N', 'G'}

	New(dir, quiet()).Capture(context.Background(), page, "login")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var exts []string
	for _, e := range entries {
		assert.Contains(t, e.Name(), "login-")
		exts = append(exts, filepath.Ext(e.Name()))
	}
	assert.ElementsMatch(t, []string{".html", ".png"}, exts)
}

func TestCaptureWithoutDirIsNoop(t *testing.T) {
	page := browsertest.New()
	page.HTMLValue = "<html></html>"
	// Must not panic or create anything.
	New("", quiet()).Capture(context.Background(), page, "x")
}

func TestSummarize(t *testing.T) {
	html := `<html>
  <head><title>Paris Tennis</title></head>
  <body>
    <div class="alert">Votre session a expiré</div>
  </body>
</html>`
	s := Summarize(html)
	assert.Contains(t, s, "title: Paris Tennis")
	assert.Contains(t, s, "alert: Votre session a expiré")
}

func TestSummarizeEmptyPage(t *testing.T) {
	assert.Equal(t, "", Summarize(""))
}
