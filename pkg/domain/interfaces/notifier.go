package interfaces

import (
	"context"

	"github.com/mentis-app/mentis/pkg/domain/model"
)

// Notifier announces finalized assessments whose automatic and expert bands disagree
type Notifier interface {
	NotifyDiscordance(ctx context.Context, channelID string, workspace model.Workspace, assessment *model.Assessment) error
}

// Archiver stores the summary of a finalized assessment outside the record store
type Archiver interface {
	// Put stores the finalized record and returns the location it was written to
	Put(ctx context.Context, workspace model.Workspace, assessment *model.Assessment) (string, error)
}
