// Package provider abstracts the hosted generative-AI service that turns
// uploaded media into bilingual captions.
package provider

import (
	"context"
	"io"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
)

// DefaultMIMEType is used when the caller cannot determine the media type.
const DefaultMIMEType = "video/mp4"

// FileState is the remote resource's reported processing state.
type FileState string

const (
	StateProcessing FileState = "PROCESSING"
	StateActive     FileState = "ACTIVE"
	StateFailed     FileState = "FAILED"
)

// FileRef is the opaque handle the provider returns for uploaded media.
type FileRef struct {
	URI      string
	Name     string
	MIMEType string
	State    FileState
}

// UploadInput carries the raw media bytes and their declared type.
type UploadInput struct {
	Reader      io.Reader
	MIMEType    string
	DisplayName string
}

// Provider is the three-call remote contract: upload media, re-query its
// processing state, then request one structured caption generation.
// GenerateCaptions returns the raw response text; parsing it against the
// caption schema is the caller's concern.
type Provider interface {
	Upload(ctx context.Context, in UploadInput) (*FileRef, error)
	FileState(ctx context.Context, name string) (FileState, error)
	GenerateCaptions(ctx context.Context, ref *FileRef, target caption.TargetLanguage) (string, error)
	DeleteFile(ctx context.Context, name string) error
}
