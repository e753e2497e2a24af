package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/migration"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/platform"
)

// PreviewStore keeps preview results keyed by the job that produced them.
type PreviewStore struct {
	mu       sync.RWMutex
	previews map[string]*models.MigrationPreview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{previews: make(map[string]*models.MigrationPreview)}
}

func (ps *PreviewStore) Store(jobID string, p *models.MigrationPreview) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.previews[jobID] = p
}

func (ps *PreviewStore) Get(jobID string) *models.MigrationPreview {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.previews[jobID]
}

func (ps *PreviewStore) Delete(jobID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.previews, jobID)
}

// GetMigrationOptions returns the configured pass toggles, worker bound
// and release allow-list.
func (s *Server) GetMigrationOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Options)
}

type migrateRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	// Optional per-request override of the configured options.
	Options *migration.Options `json:"options,omitempty"`
}

func (s *Server) resolvePair(w http.ResponseWriter, req migrateRequest) (src, tgt *models.Connection, ok bool) {
	src = s.Connections.Get(req.SourceID)
	if src == nil {
		writeError(w, http.StatusNotFound, "source connection not found")
		return nil, nil, false
	}
	tgt = s.Connections.Get(req.TargetID)
	if tgt == nil {
		writeError(w, http.StatusNotFound, "target connection not found")
		return nil, nil, false
	}
	if src.ID == tgt.ID {
		writeError(w, http.StatusBadRequest, "source and target must be different connections")
		return nil, nil, false
	}
	return src, tgt, true
}

func (s *Server) requestOptions(req migrateRequest) migration.Options {
	if req.Options != nil {
		return *req.Options
	}
	return s.Options
}

// MigrationPreviewHandler starts an async preview job: list and classify,
// create nothing.
func (s *Server) MigrationPreviewHandler(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	src, tgt, ok := s.resolvePair(w, req)
	if !ok {
		return
	}

	job := s.Jobs.Create("migration-preview", req.SourceID)
	opts := s.requestOptions(req)

	go func() {
		ctx := job.Context()
		preview, err := migration.Preview(ctx, platform.NewCollection(src), platform.NewCollection(tgt), opts, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		preview.SourceID = src.ID
		preview.TargetID = tgt.ID
		s.Previews.Store(job.ID, preview)
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetMigrationPreview returns the preview result for a completed preview job.
func (s *Server) GetMigrationPreview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	job := s.Jobs.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	if job.Status == "running" {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "running",
			"message": "preview is still in progress",
		})
		return
	}

	if job.Status == "failed" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "failed",
			"error":  job.Error,
		})
		return
	}

	preview := s.Previews.Get(jobID)
	if preview == nil {
		writeError(w, http.StatusNotFound, "preview data not found")
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// MigrationRunHandler starts an async migration run.
func (s *Server) MigrationRunHandler(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	src, tgt, ok := s.resolvePair(w, req)
	if !ok {
		return
	}

	job := s.Jobs.Create("migration-run", req.TargetID)
	opts := s.requestOptions(req)

	go func() {
		ctx := job.Context()
		job.AppendLog("=== Starting migration to " + tgt.Name + " ===")
		orch := migration.New(platform.NewCollection(src), platform.NewCollection(tgt), opts, job.AppendLog)
		_, err := orch.Run(ctx)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
