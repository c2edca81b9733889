package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// EnsureHarvestSchema creates the harvest tables if they do not exist
func EnsureHarvestSchema(ctx context.Context, db *sql.DB) error {
	runs := `CREATE TABLE IF NOT EXISTS harvest_runs (
        run_id TEXT PRIMARY KEY,
        channel_id TEXT NOT NULL,
        channel_title TEXT NOT NULL,
        subscriber_count BIGINT NOT NULL,
        period TEXT NOT NULL,
        found INTEGER NOT NULL,
        processed INTEGER NOT NULL,
        detail_failed INTEGER NOT NULL,
        transcript_success INTEGER NOT NULL,
        transcript_failed INTEGER NOT NULL,
        partial BOOLEAN NOT NULL,
        state TEXT NOT NULL,
        started_at TIMESTAMPTZ NOT NULL,
        finished_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.ExecContext(ctx, runs); err != nil {
		return fmt.Errorf("create harvest_runs table: %w", err)
	}

	videos := `CREATE TABLE IF NOT EXISTS harvest_videos (
        run_id TEXT NOT NULL REFERENCES harvest_runs(run_id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        video_id TEXT NOT NULL,
        data JSONB NOT NULL,
        transcript_language TEXT,
        transcript TEXT,
        PRIMARY KEY (run_id, position)
    )`
	if _, err := db.ExecContext(ctx, videos); err != nil {
		return fmt.Errorf("create harvest_videos table: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_harvest_videos_video_id ON harvest_videos(video_id)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_harvest_videos_video_id")
	}
	return nil
}

// HarvestRepository stores finished harvests in PostgreSQL.
// Rows are JSONB so the record shape can grow without migrations.
type HarvestRepository struct{ db *sql.DB }

func NewHarvestRepository(db *sql.DB) repository.IHarvestStore {
	return &HarvestRepository{db: db}
}

func (r *HarvestRepository) Name() string { return "postgres" }

const insertRunSQL = `INSERT INTO harvest_runs(run_id, channel_id, channel_title, subscriber_count, period, found, processed,
          detail_failed, transcript_success, transcript_failed, partial, state, started_at, finished_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

const insertVideoSQL = `INSERT INTO harvest_videos(run_id, position, video_id, data, transcript_language, transcript)
          VALUES ($1,$2,$3,$4,$5,$6)`

// Write inserts the run and its records in one transaction
func (r *HarvestRepository) Write(ctx context.Context, result *model.HarvestResult) (err error) {
	if r.db == nil || result == nil {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, insertRunSQL,
		result.RunID, result.Channel.ID, result.Channel.Title, result.Channel.SubscriberCount,
		string(result.Period), result.Found, result.Processed, result.DetailFailed,
		result.TranscriptSuccess, result.TranscriptFailed, result.Partial, string(result.State),
		result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert harvest run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertVideoSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range result.Records {
		rec := &result.Records[i]
		raw, mErr := json.Marshal(rec)
		if mErr != nil {
			return mErr
		}
		var lang, text sql.NullString
		if t, ok := result.Transcript(rec.ID); ok {
			lang = sql.NullString{String: t.Language, Valid: true}
			text = sql.NullString{String: t.Text, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, result.RunID, i, rec.ID, raw, lang, text); err != nil {
			return fmt.Errorf("insert harvest video %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// ListRunVideos returns the records of a run in their harvested order, or
// model.ErrRunNotFound when no such run was stored. A stored run may have no records.
func (r *HarvestRepository) ListRunVideos(ctx context.Context, runID string) ([]model.VideoRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM harvest_runs WHERE run_id=$1)`, runID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrRunNotFound, runID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM harvest_videos WHERE run_id=$1 ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VideoRecord, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v model.VideoRecord
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
