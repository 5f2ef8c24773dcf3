package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/mentis-app/mentis/pkg/utils/async"
	"github.com/mentis-app/mentis/pkg/utils/logging"
	"github.com/mentis-app/mentis/pkg/utils/metrics"
)

// AssessmentUseCase manages saved risk profile evaluations. Every operation
// rebuilds an Evaluator from the stored snapshot, so no evaluator outlives a call.
type AssessmentUseCase struct {
	repo     interfaces.Repository
	registry *model.WorkspaceRegistry
	notifier interfaces.Notifier
	archiver interfaces.Archiver
	metrics  *metrics.Metrics
}

func (uc *AssessmentUseCase) workspace(workspaceID types.WorkspaceID) (*model.WorkspaceEntry, error) {
	entry, err := uc.registry.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *AssessmentUseCase) get(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	a, err := uc.repo.Assessment().Get(ctx, workspaceID, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrAssessmentNotFound, "assessment not found",
				goerr.V(WorkspaceIDKey, workspaceID),
				goerr.V(AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(AssessmentIDKey, id))
	}
	return a, nil
}

// evaluate restores the snapshot over the workspace profile. The returned
// evaluator holds only known categories and items.
func (uc *AssessmentUseCase) evaluate(entry *model.WorkspaceEntry, snapshot model.Snapshot) *model.Evaluator {
	ev := entry.NewEvaluator()
	ev.Restore(snapshot)
	uc.metrics.RecordEvaluation(entry.Workspace.ID)
	return ev
}

// checkSnapshot rejects negative sub-scores and unassignable bands. References
// to unknown categories or items are only logged, as Restore drops them.
func checkSnapshot(ctx context.Context, entry *model.WorkspaceEntry, snapshot model.Snapshot) error {
	validator := model.NewSnapshotValidator(entry.Profile)
	for _, err := range validator.ValidateAll(snapshot) {
		if errors.Is(err, model.ErrNegativeRating) || errors.Is(err, model.ErrInvalidBand) {
			return goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(WorkspaceIDKey, entry.Workspace.ID), goerr.V("cause", err))
		}
		logging.From(ctx).Warn("Dropping stale reference from snapshot",
			"workspace_id", entry.Workspace.ID,
			"error", err.Error(),
		)
	}
	return nil
}

// CreateAssessment creates a DRAFT assessment with an empty form
func (uc *AssessmentUseCase) CreateAssessment(ctx context.Context, workspaceID types.WorkspaceID, title, subjectName string) (*model.Assessment, error) {
	entry, err := uc.workspace(workspaceID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "title is required", goerr.V(WorkspaceIDKey, workspaceID))
	}

	ev := uc.evaluate(entry, model.Snapshot{})
	assessment := &model.Assessment{
		ID:          model.NewAssessmentID(),
		Title:       title,
		SubjectName: strings.TrimSpace(subjectName),
		Status:      types.AssessmentStatusDraft,
		Snapshot:    ev.Snapshot(),
		Summary:     ev.Summary(),
	}

	created, err := uc.repo.Assessment().Create(ctx, workspaceID, assessment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment", goerr.V(WorkspaceIDKey, workspaceID))
	}

	logging.From(ctx).Info("Assessment created",
		"workspace_id", workspaceID,
		"assessment_id", created.ID,
	)
	return created, nil
}

// GetAssessment returns a stored assessment
func (uc *AssessmentUseCase) GetAssessment(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	if _, err := uc.workspace(workspaceID); err != nil {
		return nil, err
	}
	return uc.get(ctx, workspaceID, id)
}

// ListAssessments returns the assessments of a workspace, newest first. A nil
// status lists every assessment.
func (uc *AssessmentUseCase) ListAssessments(ctx context.Context, workspaceID types.WorkspaceID, status *types.AssessmentStatus) ([]*model.Assessment, error) {
	if _, err := uc.workspace(workspaceID); err != nil {
		return nil, err
	}

	var opts []interfaces.ListAssessmentOption
	if status != nil {
		if !status.IsValid() {
			return nil, goerr.Wrap(ErrInvalidInput, "unknown assessment status", goerr.V("status", *status))
		}
		opts = append(opts, interfaces.WithStatus(*status))
	}

	assessments, err := uc.repo.Assessment().List(ctx, workspaceID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments", goerr.V(WorkspaceIDKey, workspaceID))
	}
	return assessments, nil
}

// DeleteAssessment removes an assessment regardless of its status
func (uc *AssessmentUseCase) DeleteAssessment(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) error {
	if _, err := uc.workspace(workspaceID); err != nil {
		return err
	}

	if err := uc.repo.Assessment().Delete(ctx, workspaceID, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrAssessmentNotFound, "assessment not found",
				goerr.V(WorkspaceIDKey, workspaceID),
				goerr.V(AssessmentIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete assessment", goerr.V(AssessmentIDKey, id))
	}
	return nil
}

// edit applies fn to an evaluator restored from the stored draft and saves the result
func (uc *AssessmentUseCase) edit(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID, fn func(ev *model.Evaluator)) (*model.Assessment, error) {
	entry, err := uc.workspace(workspaceID)
	if err != nil {
		return nil, err
	}

	assessment, err := uc.get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if assessment.IsFinal() {
		return nil, goerr.Wrap(ErrAssessmentFinalized, "finalized assessment cannot be edited",
			goerr.V(WorkspaceIDKey, workspaceID),
			goerr.V(AssessmentIDKey, id))
	}

	ev := uc.evaluate(entry, assessment.Snapshot)
	fn(ev)
	assessment.Snapshot = ev.Snapshot()
	assessment.Summary = ev.Summary()

	updated, err := uc.repo.Assessment().Update(ctx, workspaceID, assessment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V(AssessmentIDKey, id))
	}
	return updated, nil
}

// SetItemRating sets or clears one sub-score of an item. Unknown categories
// and items leave the assessment unchanged.
func (uc *AssessmentUseCase) SetItemRating(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID, categoryID types.CategoryID, itemID types.ItemID, field types.RatingField, value *int) (*model.Assessment, error) {
	if !field.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown rating field", goerr.V("field", field))
	}
	if value != nil && *value < 0 {
		return nil, goerr.Wrap(ErrInvalidInput, "rating must not be negative",
			goerr.V(CategoryIDKey, categoryID),
			goerr.V(ItemIDKey, itemID),
			goerr.V("value", *value))
	}

	return uc.edit(ctx, workspaceID, id, func(ev *model.Evaluator) {
		ev.SetItemRating(categoryID, itemID, field, value)
	})
}

// SetExpertBand sets or clears (BandNotApplicable) the expert band of a category
func (uc *AssessmentUseCase) SetExpertBand(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID, categoryID types.CategoryID, band types.Band) (*model.Assessment, error) {
	if band != types.BandNotApplicable && !band.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown band", goerr.V("band", band))
	}

	return uc.edit(ctx, workspaceID, id, func(ev *model.Evaluator) {
		ev.SetExpertBand(categoryID, band)
	})
}

// ApplySnapshot replaces the whole form state of a draft
func (uc *AssessmentUseCase) ApplySnapshot(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID, snapshot model.Snapshot) (*model.Assessment, error) {
	entry, err := uc.workspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := checkSnapshot(ctx, entry, snapshot); err != nil {
		return nil, err
	}

	return uc.edit(ctx, workspaceID, id, func(ev *model.Evaluator) {
		ev.Restore(snapshot)
	})
}

// FinalizeAssessment freezes a draft. The summary is recomputed against the
// current profile, archived when an archiver is set, then stored. A notice is
// sent asynchronously when any category is discordant.
func (uc *AssessmentUseCase) FinalizeAssessment(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	entry, err := uc.workspace(workspaceID)
	if err != nil {
		return nil, err
	}

	assessment, err := uc.get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if assessment.IsFinal() {
		return nil, goerr.Wrap(ErrAssessmentFinalized, "assessment is already finalized",
			goerr.V(WorkspaceIDKey, workspaceID),
			goerr.V(AssessmentIDKey, id))
	}

	ev := uc.evaluate(entry, assessment.Snapshot)
	now := time.Now().UTC()
	assessment.Snapshot = ev.Snapshot()
	assessment.Summary = ev.Summary()
	assessment.Status = types.AssessmentStatusFinal
	assessment.FinalizedAt = &now

	var archived string
	if uc.archiver != nil {
		archived, err = uc.archiver.Put(ctx, entry.Workspace, assessment)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to archive assessment", goerr.V(AssessmentIDKey, id))
		}
	}

	finalized, err := uc.repo.Assessment().Update(ctx, workspaceID, assessment)
	if err != nil {
		if archived != "" {
			logging.From(ctx).Warn("Archive object written for an assessment that is not finalized",
				"workspace_id", workspaceID,
				"assessment_id", id,
				"object", archived,
				"error", err,
			)
		}
		return nil, goerr.Wrap(err, "failed to store finalized assessment", goerr.V(AssessmentIDKey, id))
	}

	uc.metrics.RecordFinalized(workspaceID, finalized.Summary)

	logging.From(ctx).Info("Assessment finalized",
		"workspace_id", workspaceID,
		"assessment_id", id,
		"discordant", finalized.Summary.Discordant,
	)

	if uc.notifier != nil && entry.SlackChannel != "" && finalized.Summary.HasDiscordance() {
		notice := finalized.Clone()
		async.Dispatch(ctx, "notify-discordance", func(ctx context.Context) error {
			return uc.notifier.NotifyDiscordance(ctx, entry.SlackChannel, entry.Workspace, notice)
		})
	}

	return finalized, nil
}

// ReopenAssessment turns a finalized assessment back into a draft
func (uc *AssessmentUseCase) ReopenAssessment(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	if _, err := uc.workspace(workspaceID); err != nil {
		return nil, err
	}

	assessment, err := uc.get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !assessment.IsFinal() {
		return nil, goerr.Wrap(ErrAssessmentNotFinalized, "only finalized assessments can be reopened",
			goerr.V(WorkspaceIDKey, workspaceID),
			goerr.V(AssessmentIDKey, id))
	}

	assessment.Status = types.AssessmentStatusDraft
	assessment.FinalizedAt = nil

	reopened, err := uc.repo.Assessment().Update(ctx, workspaceID, assessment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reopen assessment", goerr.V(AssessmentIDKey, id))
	}
	return reopened, nil
}

// Evaluate computes the summary of a snapshot without storing anything
func (uc *AssessmentUseCase) Evaluate(ctx context.Context, workspaceID types.WorkspaceID, snapshot model.Snapshot) (model.Summary, error) {
	entry, err := uc.workspace(workspaceID)
	if err != nil {
		return model.Summary{}, err
	}
	if err := checkSnapshot(ctx, entry, snapshot); err != nil {
		return model.Summary{}, err
	}

	return uc.evaluate(entry, snapshot).Summary(), nil
}
