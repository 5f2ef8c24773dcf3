package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// ValidationIssue represents a single validation issue found during DB consistency check
type ValidationIssue struct {
	WorkspaceID  types.WorkspaceID
	AssessmentID model.AssessmentID
	CategoryID   string
	ItemID       string
	Message      string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB reports stored assessments whose snapshots reference categories
// or items that are no longer in the workspace profile, or carry values the
// API would reject. Such references are harmless and dropped on evaluation,
// so the result is informational. It does NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	var (
		mu     sync.Mutex
		result = &ValidationResult{}
	)

	eg, ctx := errgroup.WithContext(ctx)
	for _, entry := range uc.workspaceRegistry.List() {
		eg.Go(func() error {
			assessments, err := uc.repo.Assessment().List(ctx, entry.Workspace.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list assessments", goerr.V(WorkspaceIDKey, entry.Workspace.ID))
			}

			validator := model.NewSnapshotValidator(entry.Profile)
			var issues []ValidationIssue
			for _, a := range assessments {
				for _, verr := range validator.ValidateAll(a.Snapshot) {
					issues = append(issues, newValidationIssue(entry.Workspace.ID, a.ID, verr))
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for _, issue := range issues {
				result.AddIssue(issue)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		a, b := result.Issues[i], result.Issues[j]
		if a.WorkspaceID != b.WorkspaceID {
			return a.WorkspaceID < b.WorkspaceID
		}
		return a.AssessmentID < b.AssessmentID
	})

	return result, nil
}

func newValidationIssue(wsID types.WorkspaceID, id model.AssessmentID, err error) ValidationIssue {
	issue := ValidationIssue{
		WorkspaceID:  wsID,
		AssessmentID: id,
		Message:      err.Error(),
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		values := ge.Values()
		if v, ok := values[model.CategoryIDKey]; ok {
			issue.CategoryID = fmt.Sprint(v)
		}
		if v, ok := values[model.ItemIDKey]; ok {
			issue.ItemID = fmt.Sprint(v)
		}
	}

	return issue
}
