package model

import (
	"fmt"
	"time"
)

// Credential is an opaque YouTube Data API key.
type Credential string

// ChannelProfile represents the channel a harvest runs against
type ChannelProfile struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// URL returns the public channel page.
func (c ChannelProfile) URL() string {
	return "https://www.youtube.com/channel/" + c.ID
}

// Metrics holds the derived engagement ratios of a video, in percent.
type Metrics struct {
	SpreadRate     float64 `json:"spread_rate"`
	CommentRate    float64 `json:"comment_rate"`
	LikeRate       float64 `json:"like_rate"`
	EngagementRate float64 `json:"engagement_rate"`
}

// VideoRecord is one harvested video row
type VideoRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PublishedAt     time.Time `json:"published_at"`
	ChannelTitle    string    `json:"channel_title"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	DurationSeconds int64     `json:"duration_seconds"`
	SubscriberCount int64     `json:"subscriber_count"`
	Metrics         Metrics   `json:"metrics"`
}

// URL returns the watch page of the video.
func (v VideoRecord) URL() string {
	return WatchURL(v.ID)
}

// Duration renders DurationSeconds for display.
func (v VideoRecord) Duration() string {
	return FormatDuration(v.DurationSeconds)
}

// TranscriptArtifact is the spoken text of a single video
type TranscriptArtifact struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Language  string `json:"language"`
	SourceURL string `json:"source_url"`
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// SkipStage tells which step of the per-video processing gave up
type SkipStage string

const (
	StageDetail     SkipStage = "detail"
	StageTranscript SkipStage = "transcript"
)

// SkipKind classifies why a video (or its transcript) was skipped
type SkipKind string

const (
	SkipNotFound              SkipKind = "not_found"
	SkipFetchError            SkipKind = "fetch_error"
	SkipTranscriptUnavailable SkipKind = "transcript_unavailable"
	SkipCanceled              SkipKind = "canceled"
)

// SkipReason records a per-video failure without aborting the run.
type SkipReason struct {
	VideoID string    `json:"video_id"`
	Stage   SkipStage `json:"stage"`
	Kind    SkipKind  `json:"kind"`
	Err     error     `json:"-"`
	Message string    `json:"message"`
}

func (s SkipReason) String() string {
	return fmt.Sprintf("%s %s: %s (%s)", s.VideoID, s.Stage, s.Kind, s.Message)
}

// HarvestState is the terminal state reached by a harvest run
type HarvestState string

const (
	StateResolvingChannel HarvestState = "resolving_channel"
	StateSelectingPeriod  HarvestState = "selecting_period"
	StateEnumerating      HarvestState = "enumerating"
	StateApplyingLimit    HarvestState = "applying_limit"
	StateProcessing       HarvestState = "processing"
	StateFinalizing       HarvestState = "finalizing"
	StateDone             HarvestState = "done"
	StateFailed           HarvestState = "failed"
)

// HarvestResult is the terminal output of a harvest run. Records and
// Transcripts keep enumeration order.
type HarvestResult struct {
	RunID       string               `json:"run_id"`
	Channel     ChannelProfile       `json:"channel"`
	Period      Period               `json:"period"`
	Window      Window               `json:"window"`
	Found       int                  `json:"found"`
	Recommended int                  `json:"recommended"`
	Processed   int                  `json:"processed"`
	Records     []VideoRecord        `json:"records"`
	Transcripts []TranscriptArtifact `json:"transcripts"`
	Skips       []SkipReason         `json:"skips"`

	// TranscriptSuccess and TranscriptFailed count transcript outcomes of detail-fetched videos.
	TranscriptSuccess int          `json:"transcript_success"`
	TranscriptFailed  int          `json:"transcript_failed"`
	DetailFailed      int          `json:"detail_failed"`
	Partial           bool         `json:"partial"`
	State             HarvestState `json:"state"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        time.Time    `json:"finished_at"`
}

// Transcript returns the artifact harvested for videoID, if any.
func (r *HarvestResult) Transcript(videoID string) (TranscriptArtifact, bool) {
	for _, t := range r.Transcripts {
		if t.VideoID == videoID {
			return t, true
		}
	}
	return TranscriptArtifact{}, false
}

// HarvestEvent reports the progress of a run: every state change, and each
// finished video while processing.
type HarvestEvent struct {
	RunID   string       `json:"run_id"`
	Channel string       `json:"channel,omitempty"`
	State   HarvestState `json:"state"`
	VideoID string       `json:"video_id,omitempty"`
	Done    int          `json:"done,omitempty"`
	Total   int          `json:"total,omitempty"`
}
