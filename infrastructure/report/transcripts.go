package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/filecsv"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// TranscriptsDir is the run subdirectory holding one document per transcript.
const TranscriptsDir = "transcripts"

// TranscriptDocs writes every harvested transcript to <run dir>/transcripts/<videoId>.<ext>.
type TranscriptDocs struct {
	outputDir string
	format    Format
}

func NewTranscriptDocs(outputDir string, format Format) repository.IHarvestSink {
	return &TranscriptDocs{outputDir: outputDir, format: format}
}

func (t *TranscriptDocs) Name() string { return "transcripts" }

func (t *TranscriptDocs) Write(ctx context.Context, result *model.HarvestResult) error {
	dir := filepath.Join(filecsv.RunDir(t.outputDir, result), TranscriptsDir)
	var errs []error
	for _, tr := range result.Transcripts {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := Document{
			Title:     tr.Title,
			URL:       tr.SourceURL,
			Language:  tr.Language,
			Text:      tr.Text,
			Generated: result.FinishedAt,
		}
		path := filepath.Join(dir, tr.VideoID+t.format.Ext())
		if err := WriteDocument(path, doc, t.format); err != nil {
			errs = append(errs, fmt.Errorf("transcript %s: %w", tr.VideoID, err))
		}
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"dir":     dir,
		"written": len(result.Transcripts) - len(errs),
		"failed":  len(errs),
	}).Info("Wrote transcript documents")
	return errors.Join(errs...)
}
