package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/askfolio/askfolio/internal/ingest"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/qna"
	"github.com/askfolio/askfolio/internal/source"
)

// maxResumeBytes bounds resume uploads. PDFs and scans of a one-person
// resume fit comfortably; anything larger is a mistake.
const maxResumeBytes = 10 << 20

// adminHandler serves the owner-facing endpoints.
type adminHandler struct {
	ingester *ingest.Service
	history  *qna.Store
	logger   *slog.Logger
}

// adminProfile is the owner view, including ingestion state.
type adminProfile struct {
	GitHubURL    string `json:"github_url"`
	LinkedInURL  string `json:"linkedin_url"`
	PortfolioURL string `json:"portfolio_url"`
	Bio          string `json:"bio"`
	ResumeURL    string `json:"resume_url"`
	PhotoURL     string `json:"photo_url"`

	ScrapedGitHub    bool `json:"scraped_github"`
	ScrapedPortfolio bool `json:"scraped_portfolio"`
	ScrapedResume    bool `json:"scraped_resume"`

	UpdatedAt time.Time `json:"updated_at"`
}

func toAdminProfile(p *profile.Profile) adminProfile {
	return adminProfile{
		GitHubURL:        p.GitHubURL,
		LinkedInURL:      p.LinkedInURL,
		PortfolioURL:     p.PortfolioURL,
		Bio:              p.Bio,
		ResumeURL:        p.ResumeURL,
		PhotoURL:         p.PhotoURL,
		ScrapedGitHub:    p.ScrapedGitHub != "",
		ScrapedPortfolio: p.ScrapedPortfolio != "",
		ScrapedResume:    p.ScrapedResume != "",
		UpdatedAt:        p.UpdatedAt,
	}
}

type updateProfileRequest struct {
	GitHubURL    string `json:"github_url"`
	LinkedInURL  string `json:"linkedin_url"`
	PortfolioURL string `json:"portfolio_url"`
	Bio          string `json:"bio"`
	ResumeURL    string `json:"resume_url"`
	PhotoURL     string `json:"photo_url"`
}

// updateProfile handles PUT /api/admin/profile. Saving triggers re-ingestion
// of exactly the sources that changed; the request blocks until indexing
// finishes so the owner sees the final state.
func (h *adminHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", h.logger)
		return
	}

	updated, err := h.ingester.ApplyProfile(r.Context(), &profile.Profile{
		ID:           profile.ID,
		GitHubURL:    req.GitHubURL,
		LinkedInURL:  req.LinkedInURL,
		PortfolioURL: req.PortfolioURL,
		Bio:          req.Bio,
		ResumeURL:    req.ResumeURL,
		PhotoURL:     req.PhotoURL,
	})
	if err != nil {
		h.logger.Error("profile update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toAdminProfile(updated), h.logger)
}

type scrapeRequest struct {
	Source string `json:"source"`
	// URL optionally overrides the profile's stored URL for this scrape.
	URL string `json:"url"`
}

// scrape handles POST /api/admin/scrape: force re-ingestion of one source,
// from an explicit URL when the request carries one.
func (h *adminHandler) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", h.logger)
		return
	}

	category, err := source.Parse(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown source category", h.logger)
		return
	}

	switch err := h.ingester.Rescrape(r.Context(), category, req.URL); {
	case errors.Is(err, ingest.ErrSourceDisabled):
		writeError(w, http.StatusBadRequest, "linkedin scraping is disabled", h.logger)
	case errors.Is(err, ingest.ErrNoSource):
		writeError(w, http.StatusBadRequest, "no source configured for category", h.logger)
	case errors.Is(err, ingest.ErrNoContent):
		writeError(w, http.StatusUnprocessableEntity, "no content could be scraped from the source", h.logger)
	case err != nil:
		h.logger.Error("rescrape failed", "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to re-scrape source", h.logger)
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"source": category.String(),
		}, h.logger)
	}
}

// uploadResume handles POST /api/admin/resume. Accepts a multipart upload
// under the "resume" field, extracts its text, and indexes it.
func (h *adminHandler) uploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes)
	if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload", h.logger)
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing resume file", h.logger)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed", h.logger)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}

	switch err := h.ingester.IngestResume(r.Context(), data, mediaType); {
	case errors.Is(err, ingest.ErrNoContent):
		writeError(w, http.StatusUnprocessableEntity, "no text could be extracted from the document", h.logger)
	case err != nil:
		h.logger.Error("resume ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to ingest resume", h.logger)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
	}
}

type qnaEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// listQnA handles GET /api/admin/qna, newest first.
func (h *adminHandler) listQnA(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", h.logger)
			return
		}
		limit = n
	}

	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing qna failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list questions", h.logger)
		return
	}

	out := make([]qnaEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, qnaEntry{
			ID:        e.ID.String(),
			Question:  e.Question,
			Answer:    e.Answer,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}
