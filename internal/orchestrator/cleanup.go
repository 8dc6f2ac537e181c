package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/source"
)

// OutTempPrefix names the staging dirs used for s3:// outputs.
const OutTempPrefix = "pdfout-"

// CleanupTemps removes temp dirs left behind by interrupted runs that are
// older than maxAge. It only targets names created by our helpers
// (pdfdl-*, s3pdf-*, pdfout-*).
func CleanupTemps(maxAge time.Duration) int {
	return cleanupDir(os.TempDir(), maxAge, time.Now())
}

func cleanupDir(dir string, maxAge time.Duration, now time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if !(strings.HasPrefix(name, source.HTTPTempPrefix) || strings.HasPrefix(name, source.S3TempPrefix) || strings.HasPrefix(name, OutTempPrefix)) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			log.Debug().Err(err).Str("path", name).Msg("failed to remove stale temp")
			continue
		}
		removed++
	}
	return removed
}
