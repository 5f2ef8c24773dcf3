package interfaces

import (
	"context"

	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

// AssessmentRepository defines the interface for Assessment data access.
// Records are scoped by workspace.
type AssessmentRepository interface {
	// Create stores a new assessment. The ID must be set by the caller.
	Create(ctx context.Context, workspaceID types.WorkspaceID, assessment *model.Assessment) (*model.Assessment, error)

	// Get retrieves an assessment by ID
	Get(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error)

	// List retrieves assessments ordered by UpdatedAt, newest first
	List(ctx context.Context, workspaceID types.WorkspaceID, opts ...ListAssessmentOption) ([]*model.Assessment, error)

	// Update replaces an existing assessment
	Update(ctx context.Context, workspaceID types.WorkspaceID, assessment *model.Assessment) (*model.Assessment, error)

	// Delete deletes an assessment by ID
	Delete(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) error
}
