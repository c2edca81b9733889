package filecsv

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// NewFile creates path and its parent directories, truncating an existing file.
func NewFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while create directory")
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while open file")
		return nil, err
	}

	return file, nil
}

// SanitizeName makes a channel title safe to use as a directory name.
func SanitizeName(name string) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		bad := unicode.IsControl(r) || unicode.IsSpace(r) || strings.ContainsRune(`<>:"/\|?*`, r)
		if bad {
			if !lastUnderscore {
				sb.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		sb.WriteRune(r)
		lastUnderscore = false
	}
	out := strings.Trim(sb.String(), "._ ")
	if out == "" {
		return "channel"
	}
	return out
}

// RunDir is the directory every report of a run is written to:
// <outputDir>/<sanitized channel>_<yyyymmdd_hhmmss>.
func RunDir(outputDir string, result *model.HarvestResult) string {
	name := SanitizeName(result.Channel.Title) + "_" + result.StartedAt.Format("20060102_150405")
	return filepath.Join(outputDir, name)
}
