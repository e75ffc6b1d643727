package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tranvu/amazon-product-export/internal/database"
	"github.com/tranvu/amazon-product-export/internal/export"
	"github.com/tranvu/amazon-product-export/internal/jobs"
	"github.com/tranvu/amazon-product-export/internal/models"
	"github.com/tranvu/amazon-product-export/internal/scraper"
)

type Handlers struct {
	scraper    scraper.Scraper
	jobs       *jobs.Manager
	bundler    *export.Bundler
	db         *database.DB // optional persistence, may be nil
	credential string
	logger     *slog.Logger
}

func NewHandlers(s scraper.Scraper, jm *jobs.Manager, bundler *export.Bundler, db *database.DB, credential string, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper:    s,
		jobs:       jm,
		bundler:    bundler,
		db:         db,
		credential: credential,
		logger:     logger.With("component", "api"),
	}
}

// ExtractRequest asks for one product. The API key falls back to the
// server's configured credential when omitted.
type ExtractRequest struct {
	Identifier string `json:"identifier"`
	NicheHint  string `json:"niche_hint,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
}

func (h *Handlers) ExtractProduct(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.scraper.ExtractProduct(r.Context(), req.Identifier, req.NicheHint, h.resolveCredential(req.APIKey))
	if err != nil {
		// Only input validation reaches here; extraction failures come
		// back as error-shaped records.
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.db != nil {
		if err := h.db.SaveRecord(r.Context(), rec); err != nil {
			h.logger.Warn("failed to persist record", "asin", rec.ASIN, "error", err)
		}
	}

	h.respondJSON(w, http.StatusOK, rec)
}

type CreateJobRequest struct {
	Identifiers []string `json:"identifiers"`
	NicheHint   string   `json:"niche_hint,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
}

func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Identifiers) == 0 {
		h.respondError(w, http.StatusBadRequest, "identifiers must not be empty")
		return
	}
	credential := h.resolveCredential(req.APIKey)
	if credential == "" {
		h.respondError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	// The job outlives this request, so it must not inherit the
	// request context.
	job := h.jobs.Start(context.Background(), req.Identifiers, req.NicheHint, credential)
	h.respondJSON(w, http.StatusAccepted, job)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.Cancel(chi.URLParam(r, "jobID")); err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// ExportJob streams the job's records as an xlsx workbook.
func (h *Handlers) ExportJob(w http.ResponseWriter, r *http.Request) {
	records, err := h.jobRecords(w, r)
	if records == nil || err != nil {
		return
	}

	f, err := export.BuildWorkbook(records)
	if err != nil {
		h.logger.Error("failed to build workbook", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("amazon_scrape_%d.xlsx", time.Now().Unix())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := f.Write(w); err != nil {
		h.logger.Error("failed to stream workbook", "error", err)
	}
}

// ExportJobImages streams a zip of every image referenced by the job's
// records.
func (h *Handlers) ExportJobImages(w http.ResponseWriter, r *http.Request) {
	records, err := h.jobRecords(w, r)
	if records == nil || err != nil {
		return
	}

	filename := fmt.Sprintf("amazon_images_%d.zip", time.Now().Unix())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.bundler.BundleImages(r.Context(), records, w); err != nil {
		h.logger.Error("failed to bundle images", "error", err)
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) jobRecords(w http.ResponseWriter, r *http.Request) ([]*models.ProductRecord, error) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobs.Get(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return nil, err
	}
	if job.Status == jobs.StatusPending || job.Status == jobs.StatusRunning {
		h.respondError(w, http.StatusConflict, "job is still running")
		return nil, errors.New("job is still running")
	}

	records, err := h.jobs.Records(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return nil, err
	}
	if len(records) == 0 {
		h.respondError(w, http.StatusNotFound, "job produced no records")
		return nil, errors.New("no records")
	}
	return records, nil
}

func (h *Handlers) resolveCredential(requestKey string) string {
	if requestKey != "" {
		return requestKey
	}
	return h.credential
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
