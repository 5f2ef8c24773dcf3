package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

type assessmentRepository struct {
	mu          sync.RWMutex
	assessments map[types.WorkspaceID]map[model.AssessmentID]*model.Assessment
}

func newAssessmentRepository() *assessmentRepository {
	return &assessmentRepository{
		assessments: make(map[types.WorkspaceID]map[model.AssessmentID]*model.Assessment),
	}
}

func (r *assessmentRepository) Create(ctx context.Context, workspaceID types.WorkspaceID, a *model.Assessment) (*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, exists := r.assessments[workspaceID]
	if !exists {
		ws = make(map[model.AssessmentID]*model.Assessment)
		r.assessments[workspaceID] = ws
	}

	created := a.Clone()
	if created.ID == "" {
		created.ID = model.NewAssessmentID()
	}
	if _, exists := ws[created.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "assessment already exists", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	ws[created.ID] = created
	return created.Clone(), nil
}

func (r *assessmentRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.assessments[workspaceID][id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
			goerr.V("workspace_id", workspaceID),
			goerr.V("id", id))
	}

	return a.Clone(), nil
}

func (r *assessmentRepository) List(ctx context.Context, workspaceID types.WorkspaceID, opts ...interfaces.ListAssessmentOption) ([]*model.Assessment, error) {
	cfg := interfaces.BuildListAssessmentConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	ws := r.assessments[workspaceID]
	result := make([]*model.Assessment, 0, len(ws))
	for _, a := range ws {
		if s := cfg.Status(); s != nil && a.Status != *s {
			continue
		}
		result = append(result, a.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (r *assessmentRepository) Update(ctx context.Context, workspaceID types.WorkspaceID, a *model.Assessment) (*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.assessments[workspaceID][a.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
			goerr.V("workspace_id", workspaceID),
			goerr.V("id", a.ID))
	}

	updated := a.Clone()
	updated.Status = updated.Status.Normalize()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.assessments[workspaceID][updated.ID] = updated
	return updated.Clone(), nil
}

func (r *assessmentRepository) Delete(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assessments[workspaceID][id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
			goerr.V("workspace_id", workspaceID),
			goerr.V("id", id))
	}

	delete(r.assessments[workspaceID], id)
	return nil
}
