package render

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/readiness-cli/internal/config"
)

func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary installed")
	return ""
}

func TestNewChromeRendererDefaults(t *testing.T) {
	r := NewChromeRenderer(config.RenderConfig{})
	assert.Equal(t, 30*time.Second, r.timeout)

	r = NewChromeRenderer(config.RenderConfig{TimeoutSecs: 5, ChromePath: "/opt/chrome"})
	assert.Equal(t, 5*time.Second, r.timeout)
	assert.Equal(t, "/opt/chrome", r.execPath)
}

func TestChromeRendererPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := findChrome(t)

	r := NewChromeRenderer(config.RenderConfig{TimeoutSecs: 60, ChromePath: path})
	pdf, err := r.PDF(context.Background(), fullBundle(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
