package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/logging"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// Screenshotter writes numbered full-page captures. Failures are logged and
// never fail a scenario. A nil Screenshotter does nothing.
type Screenshotter struct {
	dir    string
	ext    string
	logger *zap.Logger

	mu  sync.Mutex
	seq map[string]int
}

// NewScreenshotter returns nil when screenshots are disabled.
func NewScreenshotter(cfg config.ScreenshotConfig, logger *zap.Logger) *Screenshotter {
	if !cfg.Enabled {
		return nil
	}
	ext := ".png"
	if cfg.Quality > 0 && cfg.Quality < 100 {
		ext = ".jpg"
	}
	return &Screenshotter{
		dir:    cfg.Dir,
		ext:    ext,
		logger: logging.OrNop(logger),
		seq:    make(map[string]int),
	}
}

// Capture saves the page as <dir>/<name>-<n><ext> and returns the path.
func (s *Screenshotter) Capture(ctx context.Context, page Page, name string) string {
	if s == nil {
		return ""
	}
	base := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "page"
	}

	s.mu.Lock()
	s.seq[base]++
	n := s.seq[base]
	s.mu.Unlock()

	buf, err := page.Screenshot(ctx)
	if err != nil {
		s.logger.Warn("screenshot failed", zap.String("name", base), zap.Error(err))
		return ""
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("screenshot dir", zap.String("dir", s.dir), zap.Error(err))
		return ""
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%d%s", base, n, s.ext))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.logger.Warn("write screenshot", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.logger.Debug("screenshot saved", zap.String("path", path))
	return path
}
