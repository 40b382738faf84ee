package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/config"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/logging"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/workflow"
)

const fakeResponse = `[
	{"startTime": "00:00:01,000", "endTime": "00:00:02,000", "originalText": "Hi", "translatedText": "你好"}
]`

type stubProvider struct {
	response  string
	uploadErr error
	delay     time.Duration
}

func (p *stubProvider) Upload(ctx context.Context, in provider.UploadInput) (*provider.FileRef, error) {
	if p.uploadErr != nil {
		return nil, p.uploadErr
	}
	return &provider.FileRef{
		URI:      "files/stub-uri",
		Name:     "files/stub",
		MIMEType: in.MIMEType,
		State:    provider.StateActive,
	}, nil
}

func (p *stubProvider) FileState(ctx context.Context, name string) (provider.FileState, error) {
	return provider.StateActive, nil
}

func (p *stubProvider) GenerateCaptions(ctx context.Context, ref *provider.FileRef, target caption.TargetLanguage) (string, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.response, nil
}

func (p *stubProvider) DeleteFile(ctx context.Context, name string) error {
	return nil
}

func newTestServer(t *testing.T, p provider.Provider) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		CORSOrigins:     []string{"*"},
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 10,
	}
	srv := New(cfg, p, logging.NewLogger(false))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func uploadFile(t *testing.T, ts *httptest.Server, name string, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("fake media bytes")); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	resp, err := http.Post(ts.URL+"/api/jobs", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func createJob(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := uploadFile(t, ts, "clip.mp4", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create job status = %d, body %s", resp.StatusCode, body)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" {
		t.Fatal("empty job id")
	}
	return out.ID
}

func waitForJob(t *testing.T, ts *httptest.Server, id string, want workflow.State) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/jobs/" + id)
		if err != nil {
			t.Fatal(err)
		}
		var job Job
		err = json.NewDecoder(resp.Body).Decode(&job)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if job.State == want {
			return job
		}
		if job.State == workflow.StateError && want != workflow.StateError {
			t.Fatalf("job failed: %s", job.Error)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached state %s", id, want)
	return Job{}
}

func TestJobLifecycle(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})

	id := createJob(t, ts)
	job := waitForJob(t, ts, id, workflow.StateCompleted)

	if len(job.Captions) != 1 {
		t.Fatalf("got %d captions, want 1", len(job.Captions))
	}
	if job.Captions[0].TranslatedText != "你好" {
		t.Errorf("unexpected caption: %+v", job.Captions[0])
	}
	if job.CompletedAt == nil {
		t.Error("completed job should carry a completion time")
	}
}

func TestJobFailureSurfacesFriendlyError(t *testing.T) {
	ts := newTestServer(t, &stubProvider{
		uploadErr: errors.New("rpc error: RESOURCE_EXHAUSTED: quota exceeded"),
	})

	id := createJob(t, ts)
	job := waitForJob(t, ts, id, workflow.StateError)

	if !strings.Contains(job.Error, "quota") {
		t.Errorf("error %q should mention the quota", job.Error)
	}
	if len(job.Captions) != 0 {
		t.Error("failed job must not carry captions")
	}
}

func TestExportDownload(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})

	id := createJob(t, ts)
	waitForJob(t, ts, id, workflow.StateCompleted)

	resp, err := http.Get(ts.URL + "/api/jobs/" + id + "/export")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "x-subrip") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "clip.srt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	want := "1\n00:00:01,000 --> 00:00:02,000\n你好\nHi\n"
	if string(body) != want {
		t.Errorf("export body = %q, want %q", body, want)
	}
}

func TestExportBeforeCompletionConflicts(t *testing.T) {
	ts := newTestServer(t, &stubProvider{
		response: fakeResponse,
		delay:    200 * time.Millisecond,
	})

	id := createJob(t, ts)

	resp, err := http.Get(ts.URL + "/api/jobs/" + id + "/export")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("export before completion status = %d, want 409", resp.StatusCode)
	}
}

func TestActiveCaptionLookup(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})

	id := createJob(t, ts)
	waitForJob(t, ts, id, workflow.StateCompleted)

	resp, err := http.Get(ts.URL + "/api/jobs/" + id + "/active?t=1.5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active status = %d", resp.StatusCode)
	}

	var out struct {
		Index   int          `json:"index"`
		Caption caption.Item `json:"caption"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Index != 0 || out.Caption.OriginalText != "Hi" {
		t.Errorf("unexpected active caption: %+v", out)
	}

	// Outside every range: no active caption.
	resp2, err := http.Get(ts.URL + "/api/jobs/" + id + "/active?t=9.0")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Errorf("active outside ranges status = %d, want 204", resp2.StatusCode)
	}
}

func TestActiveCaptionRequiresNumericTime(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})
	id := createJob(t, ts)
	waitForJob(t, ts, id, workflow.StateCompleted)

	resp, err := http.Get(ts.URL + "/api/jobs/" + id + "/active?t=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateJobValidation(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})

	// Missing file field.
	resp, err := http.Post(ts.URL+"/api/jobs", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}

	// Unsupported target language.
	resp2 := uploadFile(t, ts, "clip.mp4", map[string]string{"target_language": "klingon"})
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("bad target language status = %d, want 400", resp2.StatusCode)
	}
}

func TestGetUnknownJob(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: fakeResponse})

	resp, err := http.Get(ts.URL + "/api/jobs/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", resp.StatusCode)
	}
}
