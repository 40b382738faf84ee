// Package workflow orchestrates the upload, poll, generate sequence against
// the remote provider and owns the processing-state machine.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
)

// MaxUploadBytes is the client-side input size boundary: 4 GiB.
const MaxUploadBytes int64 = 4 << 30

// State is the workflow's processing state. Exactly one is active at a
// time; transitions are driven solely by Generate.
type State string

const (
	StateIdle       State = "idle"
	StateReading    State = "reading"
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Phase is the structured tag carried by status updates. The UI maps it
// directly; no free-text matching is involved.
type Phase string

const (
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseGenerating Phase = "generating"
)

// StatusUpdate narrates workflow progress: a structured phase tag plus an
// optional human-readable detail.
type StatusUpdate struct {
	Phase  Phase
	Detail string
}

// StatusFunc receives phase transitions. It may be nil.
type StatusFunc func(StatusUpdate)

// Options tune a Generator.
type Options struct {
	// Target biases which language the generation prompt prioritizes.
	Target caption.TargetLanguage
	// PollInterval is the fixed wait between processing-state queries.
	// Defaults to 2 seconds.
	PollInterval time.Duration
	// MaxPollAttempts bounds the poll loop; once exhausted the workflow
	// fails with ErrProcessingTimeout. Defaults to 150 (about 5 minutes).
	MaxPollAttempts int
	// Status receives phase updates.
	Status StatusFunc
}

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 150
)

// Media is one input to a generation attempt.
type Media struct {
	Reader   io.Reader
	Size     int64
	MIMEType string
	Name     string
}

// Generator runs the three-phase remote workflow. At most one generation
// may be in flight per Generator.
type Generator struct {
	provider provider.Provider
	opts     Options
	inFlight atomic.Bool
}

// NewGenerator wires a Generator to a provider.
func NewGenerator(p provider.Provider, opts Options) *Generator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = defaultMaxPollAttempts
	}
	return &Generator{provider: p, opts: opts}
}

// Generate uploads the media, waits for the provider to finish processing
// it, requests one structured caption generation, and returns the parsed
// track. Any failure abandons the attempt; there are no retries.
func (g *Generator) Generate(ctx context.Context, media Media) (*caption.Track, error) {
	if !g.inFlight.CompareAndSwap(false, true) {
		return nil, ErrGenerationInFlight
	}
	defer g.inFlight.Store(false)

	if media.Size > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	g.status(PhaseUploading, fmt.Sprintf("Uploading %s", media.Name))

	ref, err := g.provider.Upload(ctx, provider.UploadInput{
		Reader:      media.Reader,
		MIMEType:    media.MIMEType,
		DisplayName: media.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	defer func() {
		_ = g.provider.DeleteFile(context.WithoutCancel(ctx), ref.Name)
	}()

	if err := g.awaitProcessing(ctx, ref); err != nil {
		return nil, err
	}

	g.status(PhaseGenerating, "Generating bilingual captions")

	raw, err := g.provider.GenerateCaptions(ctx, ref, g.opts.Target)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	items, err := parseCaptionResponse(raw)
	if err != nil {
		return nil, err
	}

	return caption.NewTrack(items), nil
}

// awaitProcessing polls the uploaded resource at a fixed interval while it
// reports a processing state. A failed state is fatal for the attempt; the
// loop is bounded so a stuck resource surfaces a timeout instead of
// spinning forever.
func (g *Generator) awaitProcessing(ctx context.Context, ref *provider.FileRef) error {
	state := ref.State
	for attempt := 0; state == provider.StateProcessing; attempt++ {
		if attempt >= g.opts.MaxPollAttempts {
			return ErrProcessingTimeout
		}

		g.status(PhaseProcessing, "Waiting for the provider to process the media")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.opts.PollInterval):
		}

		var err error
		state, err = g.provider.FileState(ctx, ref.Name)
		if err != nil {
			return fmt.Errorf("failed to query processing state: %w", err)
		}
	}

	if state == provider.StateFailed {
		return ErrProcessingFailed
	}
	return nil
}

func (g *Generator) status(phase Phase, detail string) {
	if g.opts.Status != nil {
		g.opts.Status(StatusUpdate{Phase: phase, Detail: detail})
	}
}

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// parseCaptionResponse decodes the provider's response text against the
// caption schema. Markdown fences are stripped first; models occasionally
// wrap even schema-constrained output.
func parseCaptionResponse(raw string) ([]caption.Item, error) {
	text := codeFence.ReplaceAllString(raw, "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var items []caption.Item
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, &ParseError{Err: err, Raw: raw}
	}
	return items, nil
}
