package workflow

import (
	"errors"
	"strings"
)

// Sentinel errors for the generation failure taxonomy. Callers distinguish
// them with errors.Is.
var (
	// ErrFileTooLarge rejects inputs over MaxUploadBytes before any remote
	// call is made.
	ErrFileTooLarge = errors.New("media file exceeds the 4 GiB upload limit")

	// ErrProcessingFailed is the provider explicitly reporting a failed
	// state for the uploaded media.
	ErrProcessingFailed = errors.New("the provider failed to process the uploaded media")

	// ErrProcessingTimeout is raised when the media is still processing
	// after the maximum number of poll attempts.
	ErrProcessingTimeout = errors.New("timed out waiting for the provider to process the media")

	// ErrGenerationInFlight rejects a second generation while one is still
	// running, so a stale response can't overwrite a newer attempt's state.
	ErrGenerationInFlight = errors.New("a caption generation is already in progress")
)

// ParseError marks a response that came back but did not conform to the
// caption schema. It keeps the raw text for diagnosis, distinct from a
// generation failure.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return "failed to parse caption response: " + e.Err.Error() +
		" (response: " + truncate(e.Raw, 200) + ")"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FriendlyMessage remaps two known provider failure shapes to text fit for
// end users and falls back to a generic message for anything unclassified.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "The file is larger than 4 GiB. Please choose a smaller file."
	case errors.Is(err, ErrProcessingTimeout):
		return "The provider took too long to process the media. Please try again."
	case errors.Is(err, ErrProcessingFailed):
		return "The provider could not process this media file."
	case errors.Is(err, ErrGenerationInFlight):
		return "A generation is already running. Please wait for it to finish."
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota"):
		return "The API quota has been exhausted or the key is not authorized. Check your API key and billing."
	case strings.Contains(msg, "413"):
		return "The provider rejected the upload as too large."
	default:
		return "Caption generation failed: " + msg
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
