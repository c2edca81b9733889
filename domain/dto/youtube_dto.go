package dto

import "time"

// MaxResultsPerPage is the largest page search.list accepts.
const MaxResultsPerPage int64 = 50

// YouTubeChannelHit represents one result of a channel search
type YouTubeChannelHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// YouTubeChannelInfo represents the profile part of channels.list
type YouTubeChannelInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// YouTubeVideoSearchRequest represents request for one page of a channel's uploads
type YouTubeVideoSearchRequest struct {
	ChannelID       string     `json:"channel_id"`
	MaxResults      int64      `json:"max_results,omitempty"`
	PageToken       string     `json:"page_token,omitempty"`
	PublishedAfter  *time.Time `json:"published_after,omitempty"`
	PublishedBefore *time.Time `json:"published_before,omitempty"`
}

// YouTubeVideoSearchPage represents one page of search.list results
type YouTubeVideoSearchPage struct {
	VideoIDs      []string `json:"video_ids"`
	NextPageToken string   `json:"next_page_token,omitempty"`
	TotalResults  int64    `json:"total_results"`
}

// YouTubeVideoDetails represents the raw fields of videos.list used by a harvest
type YouTubeVideoDetails struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`

	// Duration is the ISO 8601 contentDetails.duration, e.g. PT4M13S.
	Duration string `json:"duration"`
}

// HarvestRequest represents request for a channel harvest
type HarvestRequest struct {
	Channel         string `json:"channel" binding:"required"`
	Period          string `json:"period,omitempty"` // last3Months, last6Months, lastYear, allTime
	MaxVideos       int    `json:"max_videos,omitempty"`
	SkipTranscripts bool   `json:"skip_transcripts,omitempty"`

	// RunID lets a client subscribe to /api/events?run=<id> before posting.
	RunID string `json:"run_id,omitempty" binding:"omitempty,uuid"`

	// AcceptRecommended applies the recommended cap without asking; nil means accept.
	AcceptRecommended *bool `json:"accept_recommended,omitempty"`
}

// HarvestSummary represents the response of a harvest run
type HarvestSummary struct {
	RunID             string  `json:"run_id"`
	ChannelID         string  `json:"channel_id"`
	ChannelTitle      string  `json:"channel_title"`
	SubscriberCount   int64   `json:"subscriber_count"`
	Period            string  `json:"period"`
	Found             int     `json:"found"`
	Recommended       int     `json:"recommended"`
	Processed         int     `json:"processed"`
	Records           int     `json:"records"`
	DetailFailed      int     `json:"detail_failed"`
	TranscriptSuccess int     `json:"transcript_success"`
	TranscriptFailed  int     `json:"transcript_failed"`
	Partial           bool    `json:"partial"`
	State             string  `json:"state"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

// TranscriptResponse represents response for a single transcript
type TranscriptResponse struct {
	VideoID   string `json:"video_id"`
	Language  string `json:"language"`
	SourceURL string `json:"source_url"`
	Text      string `json:"text"`
}
