package interfaces

import "github.com/mentis-app/mentis/pkg/domain/types"

// ListAssessmentOption is a functional option for filtering assessments in List
type ListAssessmentOption func(*listAssessmentConfig)

type listAssessmentConfig struct {
	status *types.AssessmentStatus
}

// WithStatus filters assessments by status
func WithStatus(status types.AssessmentStatus) ListAssessmentOption {
	return func(c *listAssessmentConfig) {
		c.status = &status
	}
}

// BuildListAssessmentConfig builds a listAssessmentConfig from options
func BuildListAssessmentConfig(opts ...ListAssessmentOption) *listAssessmentConfig {
	cfg := &listAssessmentConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listAssessmentConfig) Status() *types.AssessmentStatus {
	return c.status
}
