package server

import (
	"net/http"
	"strings"

	"github.com/okarpov/jobforge/internal/match"
	"go.uber.org/zap"
)

type matchRequest struct {
	Profile match.Record `json:"profile"`
	Job     match.Record `json:"job"`
}

type descriptionResponse struct {
	Description string `json:"description"`
}

type summaryRequest struct {
	Description string `json:"description"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid match request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Profile == nil || req.Job == nil {
		writeError(w, http.StatusBadRequest, "both profile and job are required")
		return
	}

	result := s.matcher.Analyze(r.Context(), req.Profile, req.Job)

	log.Info("match scored", zap.Float64("match_score", result.MatchScore))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStorePosting(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	var input match.Record
	if err := decodeJSON(r, &input); err != nil {
		log.Warn("invalid store posting request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.postings.GenerateStorePosting(r.Context(), input)

	log.Info("store posting generated")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	var job match.Record
	if err := decodeJSON(r, &job); err != nil {
		log.Warn("invalid description request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	description := s.postings.GenerateDescription(r.Context(), job)

	log.Info("description generated")
	writeJSON(w, http.StatusOK, descriptionResponse{Description: description})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	var req summaryRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid summary request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	summary := s.postings.Summarize(r.Context(), req.Description)

	log.Info("summary generated")
	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"provider":        s.health.Provider,
		"model":           s.health.Model,
		"embedding_model": s.health.EmbeddingModel,
	})
}
