package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/askfolio/askfolio/internal/answer"
	"github.com/askfolio/askfolio/internal/profile"
)

// publicHandler serves the visitor-facing endpoints.
type publicHandler struct {
	profiles *profile.Store
	answers  *answer.Service
	logger   *slog.Logger
}

// publicProfile is the visitor view of the profile. Raw scraped text stays
// server-side; visitors interact with it only through answers.
type publicProfile struct {
	GitHubURL    string `json:"github_url"`
	LinkedInURL  string `json:"linkedin_url"`
	PortfolioURL string `json:"portfolio_url"`
	Bio          string `json:"bio"`
	ResumeURL    string `json:"resume_url"`
	PhotoURL     string `json:"photo_url"`
}

// getProfile handles GET /api/profile. A not-yet-created profile serves as
// an empty object.
func (h *publicHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context())
	if errors.Is(err, profile.ErrNotFound) {
		writeJSON(w, http.StatusOK, publicProfile{}, h.logger)
		return
	}
	if err != nil {
		h.logger.Error("fetching profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch profile", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, publicProfile{
		GitHubURL:    p.GitHubURL,
		LinkedInURL:  p.LinkedInURL,
		PortfolioURL: p.PortfolioURL,
		Bio:          p.Bio,
		ResumeURL:    p.ResumeURL,
		PhotoURL:     p.PhotoURL,
	}, h.logger)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Success  bool   `json:"success"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ask handles POST /api/ask.
func (h *publicHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", h.logger)
		return
	}

	result, err := h.answers.Ask(r.Context(), req.Question)
	if errors.Is(err, answer.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, "empty question", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("answering question failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Success:  true,
		Question: result.Question,
		Answer:   result.Answer,
	}, h.logger)
}
