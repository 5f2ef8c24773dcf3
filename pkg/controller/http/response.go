package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/mentis-app/mentis/pkg/usecase"
	"github.com/mentis-app/mentis/pkg/utils/errutil"
	"github.com/mentis-app/mentis/pkg/utils/logging"
)

const maxBodyBytes = 1 << 20

type workspaceResponse struct {
	ID   types.WorkspaceID `json:"id"`
	Name string            `json:"name"`
}

type itemResponse struct {
	ID          types.ItemID `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
}

type categoryResponse struct {
	ID          types.CategoryID `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Thresholds  []float64        `json:"thresholds"`
	Items       []itemResponse   `json:"items"`
}

type profileResponse struct {
	Workspace     workspaceResponse   `json:"workspace"`
	UnratedPolicy types.UnratedPolicy `json:"unrated_policy"`
	Categories    []categoryResponse  `json:"categories"`
}

func newProfileResponse(ws model.Workspace, profile *config.RiskProfile) profileResponse {
	resp := profileResponse{
		Workspace:     workspaceResponse{ID: ws.ID, Name: ws.Name},
		UnratedPolicy: profile.UnratedPolicy.Normalize(),
		Categories:    make([]categoryResponse, len(profile.Categories)),
	}
	for i, cat := range profile.Categories {
		items := make([]itemResponse, len(cat.Items))
		for j, item := range cat.Items {
			items[j] = itemResponse{ID: item.ID, Label: item.Label, Description: item.Description}
		}
		resp.Categories[i] = categoryResponse{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
			Thresholds:  cat.Thresholds[:],
			Items:       items,
		}
	}
	return resp
}

type assessmentResponse struct {
	ID          model.AssessmentID     `json:"id"`
	Title       string                 `json:"title"`
	SubjectName string                 `json:"subject_name"`
	Status      types.AssessmentStatus `json:"status"`
	Snapshot    model.Snapshot         `json:"snapshot"`
	Summary     model.Summary          `json:"summary"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	FinalizedAt *time.Time             `json:"finalized_at"`
}

func newAssessmentResponse(a *model.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:          a.ID,
		Title:       a.Title,
		SubjectName: a.SubjectName,
		Status:      a.Status,
		Snapshot:    a.Snapshot,
		Summary:     a.Summary,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		FinalizedAt: a.FinalizedAt,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.From(r.Context()).Warn("failed to write response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v and runs struct validation
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(usecase.ErrInvalidInput, "request body is empty")
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed request body", goerr.V("cause", err.Error()))
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return goerr.Wrap(usecase.ErrInvalidInput, "invalid request",
				goerr.V("field", verrs[0].Field()),
				goerr.V("rule", verrs[0].Tag()))
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "invalid request", goerr.V("cause", err.Error()))
	}
	return nil
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrWorkspaceNotFound),
		errors.Is(err, usecase.ErrAssessmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrAssessmentFinalized),
		errors.Is(err, usecase.ErrAssessmentNotFinalized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}
