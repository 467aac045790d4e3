package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/session"
)

type campaignRequest struct {
	Goal        string `json:"goal" validate:"required"`
	ProjectType string `json:"projectType" validate:"required"`
}

type campaignResponse struct {
	Status   string              `json:"status"`
	RunID    string              `json:"run_id"`
	Strategy any                 `json:"strategy"`
	Tweets   []core.ContentDraft `json:"tweets"`
}

type feedbackRequest struct {
	FeedbackType string `json:"feedback_type" validate:"required"`
	CampaignID   string `json:"campaign_id" validate:"required"`
	Comment      string `json:"comment,omitempty"`
}

type feedbackResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Sensitivity float64 `json:"sensitivity"`
}

type strategicAnalysisRequest struct {
	OnboardingID string           `json:"onboarding_id"`
	Posts        []map[string]any `json:"posts"`
	Type         string           `json:"type" validate:"required"`
}

// missingFields lists the json names of fields failing "required", or nil
// when err is not a validation error.
func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	var out []string
	for _, e := range verrs {
		if e.Tag() == "required" {
			out = append(out, e.Field())
		}
	}
	return out
}

func (s *Server) handleCampaignRequest(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	res, err := s.backend.StartCampaign(r.Context(), req.Goal)
	if err != nil {
		s.logger.Error("Campaign workflow failed", "run_id", res.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := campaignResponse{
		Status:   res.Status,
		RunID:    res.RunID,
		Strategy: NoStrategyPlaceholder,
		Tweets:   res.Tweets,
	}
	if res.Strategy != nil {
		out.Strategy = res.Strategy
	}
	if out.Tweets == nil {
		out.Tweets = []core.ContentDraft{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing required fields: %s", strings.Join(missingFields(err), ", ")))
		return
	}
	if req.FeedbackType != core.FeedbackPositive && req.FeedbackType != core.FeedbackNegative {
		writeError(w, http.StatusBadRequest, "Invalid feedback type. Must be 'positive' or 'negative'")
		return
	}

	cfg, err := s.backend.Feedback(r.Context(), core.FeedbackSignal{
		Type:       req.FeedbackType,
		CampaignID: req.CampaignID,
		Comment:    req.Comment,
	})
	if err != nil {
		s.logger.Error("Feedback failed", "campaign_id", req.CampaignID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
		return
	}

	s.logger.Info("Feedback processed", "feedback_type", req.FeedbackType, "campaign_id", req.CampaignID)
	writeJSON(w, http.StatusOK, feedbackResponse{
		Status:      core.StatusSuccess,
		Message:     "Feedback processed successfully",
		Sensitivity: cfg.Sensitivity,
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.backend.Runs()})
}

func (s *Server) handleWorkflowState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.backend.WorkflowState(id)
	if errors.Is(err, session.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("workflow %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "agents": state})
}

func (s *Server) handleStrategicAnalysis(w http.ResponseWriter, r *http.Request) {
	var req strategicAnalysisRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing required fields: %s", strings.Join(missingFields(err), ", ")))
		return
	}

	res, err := s.backend.StrategicAnalysis(r.Context(), req.OnboardingID, req.Posts, req.Type)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !res.Success && res.PerformanceAnalysis == nil {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p core.Profile
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(p.BrandName) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: brand_name")
		return
	}

	saved, err := s.backend.Profiles().Save(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.backend.Profiles().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []core.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.backend.Profiles().Get(r.Context(), id)
	if errors.Is(err, core.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No onboarding data found for ID: %s", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.backend.Profiles().(healthChecker); ok {
		if err := hc.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
