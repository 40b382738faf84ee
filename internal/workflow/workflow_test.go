package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
)

const validResponse = `[
	{"startTime": "00:00:01,000", "endTime": "00:00:03,000", "originalText": "Hello", "translatedText": "你好"},
	{"startTime": "00:00:04,000", "endTime": "00:00:06,000", "originalText": "Goodbye", "translatedText": "再见"}
]`

// fakeProvider scripts the remote contract for workflow tests.
type fakeProvider struct {
	mu sync.Mutex

	uploadState   provider.FileState
	uploadErr     error
	states        []provider.FileState
	stateErr      error
	response      string
	generateErr   error
	generateDelay time.Duration

	uploadCalls   int
	stateCalls    int
	generateCalls int
	deletedNames  []string
}

func (f *fakeProvider) Upload(ctx context.Context, in provider.UploadInput) (*provider.FileRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	state := f.uploadState
	if state == "" {
		state = provider.StateProcessing
	}
	return &provider.FileRef{
		URI:      "files/fake-uri",
		Name:     "files/fake",
		MIMEType: in.MIMEType,
		State:    state,
	}, nil
}

func (f *fakeProvider) FileState(ctx context.Context, name string) (provider.FileState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return "", f.stateErr
	}
	idx := f.stateCalls
	f.stateCalls++
	if idx < len(f.states) {
		return f.states[idx], nil
	}
	return provider.StateActive, nil
}

func (f *fakeProvider) GenerateCaptions(ctx context.Context, ref *provider.FileRef, target caption.TargetLanguage) (string, error) {
	f.mu.Lock()
	f.generateCalls++
	delay := f.generateDelay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.response, nil
}

func (f *fakeProvider) DeleteFile(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedNames = append(f.deletedNames, name)
	return nil
}

func testMedia() Media {
	return Media{
		Reader:   strings.NewReader("fake media bytes"),
		Size:     16,
		MIMEType: "video/mp4",
		Name:     "clip.mp4",
	}
}

func newTestGenerator(p provider.Provider, status StatusFunc) *Generator {
	return NewGenerator(p, Options{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 10,
		Status:          status,
	})
}

func TestGeneratePollsUntilActive(t *testing.T) {
	fake := &fakeProvider{
		states:   []provider.FileState{provider.StateProcessing, provider.StateActive},
		response: validResponse,
	}

	track, err := newTestGenerator(fake, nil).Generate(context.Background(), testMedia())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(track.Items) != 2 {
		t.Errorf("got %d captions, want 2", len(track.Items))
	}
	// Upload reported PROCESSING, then two re-queries: one still processing,
	// one active. That is exactly two polling delays before generation.
	if fake.stateCalls != 2 {
		t.Errorf("state queried %d times, want 2", fake.stateCalls)
	}
	if fake.generateCalls != 1 {
		t.Errorf("generate called %d times, want 1", fake.generateCalls)
	}
	if len(fake.deletedNames) != 1 {
		t.Errorf("uploaded file should be deleted after the attempt")
	}
}

func TestGenerateSkipsPollWhenAlreadyActive(t *testing.T) {
	fake := &fakeProvider{
		uploadState: provider.StateActive,
		response:    validResponse,
	}

	if _, err := newTestGenerator(fake, nil).Generate(context.Background(), testMedia()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fake.stateCalls != 0 {
		t.Errorf("state queried %d times, want 0", fake.stateCalls)
	}
}

func TestGenerateFailsOnProcessingFailure(t *testing.T) {
	fake := &fakeProvider{
		states: []provider.FileState{provider.StateFailed},
	}

	_, err := newTestGenerator(fake, nil).Generate(context.Background(), testMedia())
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("Generate error = %v, want ErrProcessingFailed", err)
	}
	if fake.generateCalls != 0 {
		t.Errorf("generation must not run after a processing failure")
	}
}

func TestGenerateTimesOutOnStuckProcessing(t *testing.T) {
	fake := &fakeProvider{response: validResponse}
	gen := NewGenerator(fake, Options{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})

	// FileState always reports PROCESSING.
	fake.states = []provider.FileState{
		provider.StateProcessing, provider.StateProcessing, provider.StateProcessing,
		provider.StateProcessing, provider.StateProcessing,
	}

	_, err := gen.Generate(context.Background(), testMedia())
	if !errors.Is(err, ErrProcessingTimeout) {
		t.Fatalf("Generate error = %v, want ErrProcessingTimeout", err)
	}
	if fake.generateCalls != 0 {
		t.Errorf("generation must not run after a timeout")
	}
}

func TestGenerateRejectsOversizedInput(t *testing.T) {
	fake := &fakeProvider{}
	media := testMedia()
	media.Size = MaxUploadBytes + 1

	_, err := newTestGenerator(fake, nil).Generate(context.Background(), media)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Generate error = %v, want ErrFileTooLarge", err)
	}
	if fake.uploadCalls != 0 || fake.stateCalls != 0 || fake.generateCalls != 0 {
		t.Error("no remote call may be made for an oversized input")
	}
}

func TestGenerateSurfacesParseErrorWithRawText(t *testing.T) {
	fake := &fakeProvider{
		uploadState: provider.StateActive,
		response:    "I'm sorry, I cannot transcribe this.",
	}

	_, err := newTestGenerator(fake, nil).Generate(context.Background(), testMedia())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Generate error = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Raw, "cannot transcribe") {
		t.Errorf("ParseError should keep the raw response, got %q", parseErr.Raw)
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	fake := &fakeProvider{
		uploadState: provider.StateActive,
		response:    "```json\n" + validResponse + "\n```",
	}

	track, err := newTestGenerator(fake, nil).Generate(context.Background(), testMedia())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(track.Items) != 2 {
		t.Errorf("got %d captions, want 2", len(track.Items))
	}
}

func TestGenerateRejectsReentrantCall(t *testing.T) {
	fake := &fakeProvider{
		uploadState:   provider.StateActive,
		response:      validResponse,
		generateDelay: 50 * time.Millisecond,
	}
	gen := newTestGenerator(fake, nil)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := gen.Generate(context.Background(), testMedia())
		done <- err
	}()

	<-started
	time.Sleep(10 * time.Millisecond)

	_, err := gen.Generate(context.Background(), testMedia())
	if !errors.Is(err, ErrGenerationInFlight) {
		t.Fatalf("second Generate error = %v, want ErrGenerationInFlight", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	// Once the first attempt settles, a new generation is allowed again.
	if _, err := gen.Generate(context.Background(), testMedia()); err != nil {
		t.Errorf("Generate after completion: %v", err)
	}
}

func TestGenerateEmitsStructuredPhases(t *testing.T) {
	fake := &fakeProvider{
		states:   []provider.FileState{provider.StateProcessing, provider.StateActive},
		response: validResponse,
	}

	var phases []Phase
	gen := newTestGenerator(fake, func(u StatusUpdate) {
		phases = append(phases, u.Phase)
	})

	if _, err := gen.Generate(context.Background(), testMedia()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []Phase{PhaseUploading, PhaseProcessing, PhaseProcessing, PhaseGenerating}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	fake := &fakeProvider{
		states: []provider.FileState{
			provider.StateProcessing, provider.StateProcessing, provider.StateProcessing,
		},
	}
	gen := NewGenerator(fake, Options{
		PollInterval:    time.Hour,
		MaxPollAttempts: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := gen.Generate(ctx, testMedia())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}
}

func TestFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "quota phrase",
			err:  errors.New("rpc error: RESOURCE_EXHAUSTED: quota exceeded"),
			want: "quota",
		},
		{
			name: "payload too large",
			err:  errors.New("unexpected status 413 Request Entity Too Large"),
			want: "too large",
		},
		{
			name: "oversized file",
			err:  ErrFileTooLarge,
			want: "4 GiB",
		},
		{
			name: "timeout distinct from failure",
			err:  ErrProcessingTimeout,
			want: "too long",
		},
		{
			name: "generic",
			err:  errors.New("connection refused"),
			want: "Caption generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FriendlyMessage(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FriendlyMessage(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}
}
