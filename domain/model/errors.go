package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Compare with errors.Is.
var (
	ErrInvalidIdentifier       = errors.New("invalid youtube url or video id")
	ErrNoCredentialsConfigured = errors.New("no youtube api credentials configured")
	ErrEmptyPool               = errors.New("credential pool is empty")
	ErrQuotaExceeded           = errors.New("quota exceeded")
	ErrAllCredentialsExhausted = errors.New("all credentials exhausted")
	ErrChannelNotFound         = errors.New("channel not found")
	ErrChannelInfoUnavailable  = errors.New("channel info unavailable")
	ErrVideoNotFound           = errors.New("video not found")
	ErrTranscriptUnavailable   = errors.New("transcript unavailable")
	ErrTranscriptsDisabled     = errors.New("transcripts disabled for video")
	ErrLanguageNotAvailable    = errors.New("transcript language not available")
	ErrNoVideosFound           = errors.New("no videos found")
	ErrReportFailed            = errors.New("report failed")
	ErrRunNotFound             = errors.New("harvest run not found")
)

// ExhaustedError is returned when every attempt of an invocation hit a quota error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrAllCredentialsExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrAllCredentialsExhausted, e.Last}
}

// TranscriptError wraps the last cause of a failed transcript fetch.
// Language is the last language tried, empty for the provider default.
type TranscriptError struct {
	VideoID  string
	Language string
	Err      error
}

func (e *TranscriptError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("could not fetch transcript for %s: %v", e.VideoID, e.Err)
	}
	return fmt.Sprintf("could not fetch transcript for %s (%s): %v", e.VideoID, e.Language, e.Err)
}

func (e *TranscriptError) Unwrap() []error {
	return []error{ErrTranscriptUnavailable, e.Err}
}
