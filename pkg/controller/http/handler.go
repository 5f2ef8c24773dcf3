package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/mentis-app/mentis/pkg/usecase"
)

type createAssessmentRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	SubjectName string `json:"subject_name" validate:"max=200"`
}

type setItemRatingRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	ItemID     string `json:"item_id" validate:"required"`
	Field      string `json:"field" validate:"required,oneof=frequency exposure intensity"`
	Value      *int   `json:"value" validate:"omitempty,gte=0"`
}

type setExpertBandRequest struct {
	CategoryID string     `json:"category_id" validate:"required"`
	Band       types.Band `json:"band"`
}

func workspaceID(r *http.Request) types.WorkspaceID {
	return types.WorkspaceID(chi.URLParam(r, "workspaceID"))
}

func assessmentID(r *http.Request) model.AssessmentID {
	return model.AssessmentID(chi.URLParam(r, "assessmentID"))
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces := s.uc.WorkspaceRegistry().Workspaces()
	resp := struct {
		Workspaces []workspaceResponse `json:"workspaces"`
	}{
		Workspaces: make([]workspaceResponse, len(workspaces)),
	}
	for i, ws := range workspaces {
		resp.Workspaces[i] = workspaceResponse{ID: ws.ID, Name: ws.Name}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	entry, err := s.uc.WorkspaceRegistry().Get(workspaceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newProfileResponse(entry.Workspace, entry.Profile))
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var snapshot model.Snapshot
	if err := s.decodeJSON(w, r, &snapshot); err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.uc.Assessment.Evaluate(r.Context(), workspaceID(r), snapshot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	var status *types.AssessmentStatus
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := types.ParseAssessmentStatus(v)
		if err != nil {
			writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "unknown status filter", goerr.V("status", v)))
			return
		}
		status = &parsed
	}

	assessments, err := s.uc.Assessment.ListAssessments(r.Context(), workspaceID(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := struct {
		Assessments []assessmentResponse `json:"assessments"`
	}{
		Assessments: make([]assessmentResponse, len(assessments)),
	}
	for i, a := range assessments {
		resp.Assessments[i] = newAssessmentResponse(a)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.uc.Assessment.CreateAssessment(r.Context(), workspaceID(r), req.Title, req.SubjectName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, newAssessmentResponse(a))
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.uc.Assessment.GetAssessment(r.Context(), workspaceID(r), assessmentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}

func (s *Server) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Assessment.DeleteAssessment(r.Context(), workspaceID(r), assessmentID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applySnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot model.Snapshot
	if err := s.decodeJSON(w, r, &snapshot); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.uc.Assessment.ApplySnapshot(r.Context(), workspaceID(r), assessmentID(r), snapshot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}

func (s *Server) setItemRating(w http.ResponseWriter, r *http.Request) {
	var req setItemRatingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.uc.Assessment.SetItemRating(r.Context(), workspaceID(r), assessmentID(r),
		types.CategoryID(req.CategoryID), types.ItemID(req.ItemID), types.RatingField(req.Field), req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}

func (s *Server) setExpertBand(w http.ResponseWriter, r *http.Request) {
	var req setExpertBandRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.uc.Assessment.SetExpertBand(r.Context(), workspaceID(r), assessmentID(r),
		types.CategoryID(req.CategoryID), req.Band)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}

func (s *Server) finalizeAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.uc.Assessment.FinalizeAssessment(r.Context(), workspaceID(r), assessmentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}

func (s *Server) reopenAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.uc.Assessment.ReopenAssessment(r.Context(), workspaceID(r), assessmentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAssessmentResponse(a))
}
