package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

// AssessmentID is a UUID-based identifier for Assessment
type AssessmentID string

// NewAssessmentID generates a new time-ordered AssessmentID
func NewAssessmentID() AssessmentID {
	return AssessmentID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of AssessmentID
func (id AssessmentID) String() string {
	return string(id)
}

// Assessment is a saved record holding the form state of one risk profile
// evaluation. Summary is derived from Snapshot and stored for listing only.
type Assessment struct {
	ID          AssessmentID
	Title       string
	SubjectName string
	Status      types.AssessmentStatus
	Snapshot    Snapshot
	Summary     Summary
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time
}

// IsFinal reports whether the assessment has been finalized
func (a *Assessment) IsFinal() bool {
	return a.Status.Normalize() == types.AssessmentStatusFinal
}

// Clone returns a deep copy of the assessment
func (a *Assessment) Clone() *Assessment {
	copied := *a
	copied.Snapshot = a.Snapshot.Clone()
	copied.Summary = a.Summary.Clone()
	if a.FinalizedAt != nil {
		t := *a.FinalizedAt
		copied.FinalizedAt = &t
	}
	return &copied
}
