package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/media"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/workflow"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// uploads spill to disk.
const multipartMemory = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateJob accepts the media upload and starts an asynchronous
// generation job. Oversized files are rejected here, before any remote
// call, and no job is recorded for them.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, workflow.MaxUploadBytes+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		jsonError(w, "failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing \"file\" form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > workflow.MaxUploadBytes {
		jsonError(w, workflow.FriendlyMessage(workflow.ErrFileTooLarge), http.StatusRequestEntityTooLarge)
		return
	}

	target := caption.TargetEnglish
	if v := r.FormValue("target_language"); v != "" {
		target, err = caption.ParseTargetLanguage(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// The multipart temp file disappears when the request finishes, so the
	// upload is staged to a job-owned temp file for the async workflow.
	staged, err := os.CreateTemp("", "vlingo-upload-*")
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(staged, file); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}

	job := s.jobs.create(header.Filename)

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = media.MIMEType(header.Filename)
	}

	go s.runJob(job.ID, staged, header.Size, header.Filename, mimeType, target)

	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID})
}

// runJob drives the workflow and mirrors its transitions into the stored
// job. The job's captions are replaced wholesale on success.
func (s *Server) runJob(
	jobID string,
	staged *os.File,
	size int64,
	fileName, mimeType string,
	target caption.TargetLanguage,
) {
	defer func() {
		staged.Close()
		os.Remove(staged.Name())
	}()

	gen := workflow.NewGenerator(s.provider, workflow.Options{
		Target:          target,
		PollInterval:    s.cfg.PollInterval,
		MaxPollAttempts: s.cfg.MaxPollAttempts,
		Status: func(u workflow.StatusUpdate) {
			s.jobs.update(jobID, func(j *Job) {
				j.Phase = u.Phase
				j.Detail = u.Detail
				switch u.Phase {
				case workflow.PhaseUploading:
					j.State = workflow.StateUploading
				case workflow.PhaseProcessing, workflow.PhaseGenerating:
					j.State = workflow.StateProcessing
				}
			})
		},
	})

	track, err := gen.Generate(context.Background(), workflow.Media{
		Reader:   staged,
		Size:     size,
		MIMEType: mimeType,
		Name:     fileName,
	})

	now := time.Now()
	if err != nil {
		s.log.Warnw("generation failed", "job", jobID, "error", err)
		s.jobs.update(jobID, func(j *Job) {
			j.State = workflow.StateError
			j.Error = workflow.FriendlyMessage(err)
			j.CompletedAt = &now
		})
		return
	}

	s.log.Infow("generation complete", "job", jobID, "captions", len(track.Items))
	s.jobs.update(jobID, func(j *Job) {
		j.State = workflow.StateCompleted
		j.Captions = track.Items
		j.CompletedAt = &now
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if job.State != workflow.StateCompleted {
		jsonError(w, "captions are not ready yet", http.StatusConflict)
		return
	}

	base := strings.TrimSuffix(job.FileName, filepath.Ext(job.FileName))
	if base == "" {
		base = "captions"
	}

	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", base+caption.FileExtension))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, caption.ExportSRT(caption.NewTrack(job.Captions)))
}

// handleActiveCaption mirrors the client-side selector for thin clients:
// given a playback position it returns the single active caption, if any.
func (s *Server) handleActiveCaption(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		jsonError(w, "query parameter \"t\" must be a number of seconds", http.StatusBadRequest)
		return
	}

	track := caption.NewTrack(job.Captions)
	idx, ok := track.ActiveAt(t)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"index":   idx,
		"caption": track.Items[idx],
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
