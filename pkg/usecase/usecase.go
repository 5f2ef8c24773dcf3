package usecase

import (
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/utils/metrics"
)

type UseCases struct {
	repo              interfaces.Repository
	workspaceRegistry *model.WorkspaceRegistry
	notifier          interfaces.Notifier
	archiver          interfaces.Archiver
	metrics           *metrics.Metrics

	Assessment *AssessmentUseCase
}

type Option func(*UseCases)

// WithNotifier enables Slack notices for discordant finalized assessments
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithArchiver enables archiving of finalized assessments
func WithArchiver(a interfaces.Archiver) Option {
	return func(uc *UseCases) {
		uc.archiver = a
	}
}

// WithMetrics records evaluation and finalization counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

func New(repo interfaces.Repository, registry *model.WorkspaceRegistry, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:              repo,
		workspaceRegistry: registry,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Assessment = &AssessmentUseCase{
		repo:     repo,
		registry: registry,
		notifier: uc.notifier,
		archiver: uc.archiver,
		metrics:  uc.metrics,
	}

	return uc
}

// WorkspaceRegistry returns the registry the use cases were built with
func (uc *UseCases) WorkspaceRegistry() *model.WorkspaceRegistry {
	return uc.workspaceRegistry
}
