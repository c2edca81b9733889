package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/filecsv"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// SummaryFileName is the markdown report written into the run directory.
const SummaryFileName = "report.md"

const topN = 5

// Summary writes a narrative markdown report of a harvest.
type Summary struct {
	outputDir string
}

func NewSummary(outputDir string) repository.IHarvestSink {
	return &Summary{outputDir: outputDir}
}

func (s *Summary) Name() string { return "summary" }

func (s *Summary) Write(ctx context.Context, result *model.HarvestResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(filecsv.RunDir(s.outputDir, result), SummaryFileName)
	file, err := filecsv.NewFile(path)
	if err != nil {
		return err
	}
	if err := WriteSummary(file, result); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.GetLogger().WithField("path", path).Info("Wrote summary report")
	return file.Close()
}

// WriteSummary renders the markdown report of result to w.
func WriteSummary(w io.Writer, result *model.HarvestResult) error {
	var sb strings.Builder
	ch := result.Channel

	fmt.Fprintf(&sb, "# YouTube Channel Report: %s\n\n", ch.Title)
	fmt.Fprintf(&sb, "- **Channel:** [%s](%s)\n", ch.Title, ch.URL())
	fmt.Fprintf(&sb, "- **Subscribers:** %d\n", ch.SubscriberCount)
	fmt.Fprintf(&sb, "- **Period:** %s\n", result.Period.Label())
	fmt.Fprintf(&sb, "- **Generated:** %s\n", result.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- **Videos found:** %d\n", result.Found)
	if result.Recommended > 0 {
		fmt.Fprintf(&sb, "- **Recommended limit:** %d\n", result.Recommended)
	}
	fmt.Fprintf(&sb, "- **Videos processed:** %d\n", result.Processed)
	fmt.Fprintf(&sb, "- **Records:** %d (detail failures: %d)\n", len(result.Records), result.DetailFailed)
	fmt.Fprintf(&sb, "- **Transcripts:** %d succeeded, %d failed\n", result.TranscriptSuccess, result.TranscriptFailed)
	if result.Partial {
		sb.WriteString("- **Partial run:** yes\n")
	}
	sb.WriteString("\n")

	if len(result.Records) > 0 {
		writeAverages(&sb, result.Records)
		writeTop(&sb, "Top 5 by views", result.Records, func(a, b model.VideoRecord) bool {
			return a.ViewCount > b.ViewCount
		})
		writeTop(&sb, "Top 5 by engagement", result.Records, func(a, b model.VideoRecord) bool {
			return a.Metrics.EngagementRate > b.Metrics.EngagementRate
		})
	}

	if len(result.Skips) > 0 {
		sb.WriteString("## Skipped\n\n")
		for _, skip := range result.Skips {
			fmt.Fprintf(&sb, "- `%s` %s: %s", skip.VideoID, skip.Stage, skip.Kind)
			if skip.Message != "" {
				fmt.Fprintf(&sb, " (%s)", skip.Message)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeAverages(sb *strings.Builder, records []model.VideoRecord) {
	var views, likes, comments, dur int64
	var spread, like, comment, engagement float64
	for _, r := range records {
		views += r.ViewCount
		likes += r.LikeCount
		comments += r.CommentCount
		dur += r.DurationSeconds
		spread += r.Metrics.SpreadRate
		like += r.Metrics.LikeRate
		comment += r.Metrics.CommentRate
		engagement += r.Metrics.EngagementRate
	}
	n := int64(len(records))
	fn := float64(n)

	sb.WriteString("## Averages\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(sb, "| Views | %d |\n", views/n)
	fmt.Fprintf(sb, "| Likes | %d |\n", likes/n)
	fmt.Fprintf(sb, "| Comments | %d |\n", comments/n)
	fmt.Fprintf(sb, "| Duration | %s |\n", model.FormatDuration(dur/n))
	fmt.Fprintf(sb, "| Spread rate | %.4f%% |\n", spread/fn)
	fmt.Fprintf(sb, "| Like rate | %.4f%% |\n", like/fn)
	fmt.Fprintf(sb, "| Comment rate | %.4f%% |\n", comment/fn)
	fmt.Fprintf(sb, "| Engagement rate | %.4f%% |\n\n", engagement/fn)
}

func writeTop(sb *strings.Builder, title string, records []model.VideoRecord, less func(a, b model.VideoRecord) bool) {
	sorted := make([]model.VideoRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}

	fmt.Fprintf(sb, "## %s\n\n", title)
	sb.WriteString("| # | Title | Views | Likes | Comments | Engagement |\n|---|---|---|---|---|---|\n")
	for i, r := range sorted {
		fmt.Fprintf(sb, "| %d | [%s](%s) | %d | %d | %d | %.4f%% |\n",
			i+1, escapeCell(r.Title), r.URL(), r.ViewCount, r.LikeCount, r.CommentCount, r.Metrics.EngagementRate)
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
