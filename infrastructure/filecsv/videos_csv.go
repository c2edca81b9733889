package filecsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

const (
	// VideosFileName is the CSV written into the run directory.
	VideosFileName = "videos.csv"
	utf8BOM        = "\ufeff"
)

var header = []string{
	"Title", "URL", "Thumbnail", "Channel", "Published At",
	"Views", "Likes", "Comments", "Duration", "Subscribers",
	"Spread Rate (%)", "Comment Rate (%)", "Like Rate (%)", "Engagement Rate (%)",
}

// VideosCSV exports one row per harvested video.
type VideosCSV struct {
	outputDir string
}

func NewVideosCSV(outputDir string) repository.IHarvestSink {
	return &VideosCSV{outputDir: outputDir}
}

func (v *VideosCSV) Name() string { return "csv" }

func (v *VideosCSV) Write(ctx context.Context, result *model.HarvestResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(RunDir(v.outputDir, result), VideosFileName)
	file, err := NewFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteVideos(file, result.Records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"path": path,
		"rows": len(result.Records),
	}).Info("Exported videos CSV")
	return file.Close()
}

// WriteVideos writes the header and records to w, prefixed with a UTF-8 BOM
// so spreadsheet applications detect the encoding.
func WriteVideos(w io.Writer, records []model.VideoRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Title,
			r.URL(),
			r.Thumbnail,
			r.ChannelTitle,
			formatTime(r),
			strconv.FormatInt(r.ViewCount, 10),
			strconv.FormatInt(r.LikeCount, 10),
			strconv.FormatInt(r.CommentCount, 10),
			r.Duration(),
			strconv.FormatInt(r.SubscriberCount, 10),
			formatRate(r.Metrics.SpreadRate),
			formatRate(r.Metrics.CommentRate),
			formatRate(r.Metrics.LikeRate),
			formatRate(r.Metrics.EngagementRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(r model.VideoRecord) string {
	if r.PublishedAt.IsZero() {
		return ""
	}
	return r.PublishedAt.Format("2006-01-02 15:04:05")
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
