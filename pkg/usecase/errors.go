package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrAssessmentNotFound = goerr.New("assessment not found")

	// Status errors
	ErrAssessmentFinalized    = goerr.New("assessment is finalized")
	ErrAssessmentNotFinalized = goerr.New("assessment is not finalized")

	// Input errors
	ErrInvalidInput = goerr.New("invalid input")
)

// Context keys for error values
const (
	WorkspaceIDKey  = "workspace_id"
	AssessmentIDKey = "assessment_id"
	CategoryIDKey   = "category_id"
	ItemIDKey       = "item_id"
)
