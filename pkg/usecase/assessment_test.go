package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/mentis-app/mentis/pkg/repository/memory"
	"github.com/mentis-app/mentis/pkg/usecase"
	"github.com/mentis-app/mentis/pkg/utils/async"
	"github.com/mentis-app/mentis/pkg/utils/logging"
	"github.com/mentis-app/mentis/pkg/utils/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const (
	testWorkspaceID types.WorkspaceID = "test-ws"

	catQuantitative types.CategoryID = "quantitative-demands"
	catEmotional    types.CategoryID = "emotional-demands"

	itemA types.ItemID = "uneven-distribution"
	itemB types.ItemID = "time-pressure"
	itemC types.ItemID = "overtime"
)

func newTestRegistry(channel string) *model.WorkspaceRegistry {
	registry := model.NewWorkspaceRegistry()
	registry.Register(&model.WorkspaceEntry{
		Workspace: model.Workspace{ID: testWorkspaceID, Name: "Test Workspace"},
		Profile: &config.RiskProfile{
			Categories: []config.Category{
				{
					ID:   catQuantitative,
					Name: "Quantitative demands",
					Items: []config.Item{
						{ID: itemA, Label: "Uneven distribution"},
						{ID: itemB, Label: "Time pressure"},
						{ID: itemC, Label: "Overtime"},
					},
					Thresholds: [types.BandCount]float64{12.6, 25.3, 38, 50.6, 63},
				},
				{
					ID:         catEmotional,
					Name:       "Emotional demands",
					Items:      []config.Item{{ID: itemA, Label: "Distressing situations"}},
					Thresholds: [types.BandCount]float64{10, 20, 30, 40, 50},
				},
			},
		},
		SlackChannel: channel,
	})
	return registry
}

type notice struct {
	channelID    string
	workspace    model.Workspace
	assessmentID model.AssessmentID
	discordant   []types.CategoryID
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (n *recordingNotifier) NotifyDiscordance(ctx context.Context, channelID string, workspace model.Workspace, a *model.Assessment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{
		channelID:    channelID,
		workspace:    workspace,
		assessmentID: a.ID,
		discordant:   a.Summary.Discordant,
	})
	return n.err
}

func (n *recordingNotifier) Notices() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type recordingArchiver struct {
	mu    sync.Mutex
	calls []*model.Assessment
	err   error
	onPut func(ctx context.Context, assessment *model.Assessment)
}

func (a *recordingArchiver) Put(ctx context.Context, workspace model.Workspace, assessment *model.Assessment) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.calls = append(a.calls, assessment.Clone())
	if a.onPut != nil {
		a.onPut(ctx, assessment)
	}
	return "gs://test-bucket/" + workspace.ID.String() + "/" + assessment.ID.String() + ".json", nil
}

func rateAll(t *testing.T, uc *usecase.AssessmentUseCase, id model.AssessmentID, cat types.CategoryID, item types.ItemID, f, x, i int) *model.Assessment {
	t.Helper()
	ctx := context.Background()
	var a *model.Assessment
	for field, v := range map[types.RatingField]int{
		types.RatingFieldFrequency: f,
		types.RatingFieldExposure:  x,
		types.RatingFieldIntensity: i,
	} {
		var err error
		a, err = uc.SetItemRating(ctx, testWorkspaceID, id, cat, item, field, model.IntPtr(v))
		gt.NoError(t, err).Required()
	}
	return a
}

func TestAssessmentUseCase_CreateAssessment(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), newTestRegistry(""))

	t.Run("creates draft with empty form", func(t *testing.T) {
		a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "  Intake  ", "Warehouse")
		gt.NoError(t, err).Required()

		gt.String(t, a.ID.String()).NotEqual("")
		gt.Value(t, a.Title).Equal("Intake")
		gt.Value(t, a.Status).Equal(types.AssessmentStatusDraft)
		gt.Array(t, a.Summary.Categories).Length(2)
		gt.Value(t, a.Summary.Categories[0].AutomaticBand).Equal(types.BandNone)
		gt.Array(t, a.Summary.Concordant).Length(0)
		gt.Array(t, a.Summary.Discordant).Length(0)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, " ", "")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("rejects unknown workspace", func(t *testing.T) {
		_, err := uc.Assessment.CreateAssessment(ctx, "no-such-ws", "Intake", "")
		gt.Error(t, err).Is(model.ErrWorkspaceNotFound)
	})
}

func TestAssessmentUseCase_SetItemRating(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), newTestRegistry(""))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Scenario A", "")
	gt.NoError(t, err).Required()

	rateAll(t, uc.Assessment, a.ID, catQuantitative, itemA, 2, 2, 2)
	rateAll(t, uc.Assessment, a.ID, catQuantitative, itemB, 3, 3, 3)
	updated := rateAll(t, uc.Assessment, a.ID, catQuantitative, itemC, 1, 1, 1)

	summary, ok := updated.Summary.Category(catQuantitative)
	gt.Bool(t, ok).True()
	gt.Value(t, summary.Aggregate).Equal(18)
	gt.Value(t, summary.RatedItems).Equal(3)
	gt.Value(t, summary.AutomaticBand).Equal(types.BandLow)

	t.Run("clearing a sub-score excludes the item", func(t *testing.T) {
		cleared, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, a.ID, catQuantitative, itemB, types.RatingFieldIntensity, nil)
		gt.NoError(t, err).Required()

		summary, _ := cleared.Summary.Category(catQuantitative)
		gt.Value(t, summary.Aggregate).Equal(9)
		gt.Value(t, summary.AutomaticBand).Equal(types.BandNone)

		stored, err := uc.Assessment.GetAssessment(ctx, testWorkspaceID, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Snapshot.Ratings[catQuantitative][itemB].Intensity).Nil()
	})

	t.Run("unknown item leaves the assessment unchanged", func(t *testing.T) {
		before, err := uc.Assessment.GetAssessment(ctx, testWorkspaceID, a.ID)
		gt.NoError(t, err).Required()

		after, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, a.ID, catEmotional, itemC, types.RatingFieldFrequency, model.IntPtr(4))
		gt.NoError(t, err).Required()
		gt.Value(t, after.Summary).Equal(before.Summary)
	})

	t.Run("negative value is rejected", func(t *testing.T) {
		_, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, a.ID, catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(-1))
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, a.ID, catQuantitative, itemA, types.RatingField("duration"), model.IntPtr(1))
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("unknown assessment", func(t *testing.T) {
		_, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, model.NewAssessmentID(), catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(1))
		gt.Error(t, err).Is(usecase.ErrAssessmentNotFound)
	})
}

func TestAssessmentUseCase_SetExpertBand(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), newTestRegistry(""))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Scenario B", "")
	gt.NoError(t, err).Required()

	// aggregate 18 -> LOW
	rateAll(t, uc.Assessment, a.ID, catQuantitative, itemA, 6, 6, 6)

	high, err := uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandHigh)
	gt.NoError(t, err).Required()
	gt.Array(t, high.Summary.Discordant).Length(1)
	gt.Value(t, high.Summary.Discordant[0]).Equal(catQuantitative)

	low, err := uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandLow)
	gt.NoError(t, err).Required()
	gt.Array(t, low.Summary.Discordant).Length(0)
	gt.Array(t, low.Summary.Concordant).Length(1)

	cleared, err := uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandNotApplicable)
	gt.NoError(t, err).Required()
	gt.Array(t, cleared.Summary.Concordant).Length(0)
	gt.Array(t, cleared.Summary.Discordant).Length(0)

	_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.Band("SEVERE"))
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

func TestAssessmentUseCase_ApplySnapshot(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), newTestRegistry(""))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Draft", "")
	gt.NoError(t, err).Required()

	t.Run("stale references are dropped", func(t *testing.T) {
		saved, err := uc.Assessment.ApplySnapshot(ctx, testWorkspaceID, a.ID, model.Snapshot{
			Ratings: map[types.CategoryID]map[types.ItemID]model.ItemRating{
				catEmotional: {
					itemA: {Frequency: model.IntPtr(1), Exposure: model.IntPtr(1), Intensity: model.IntPtr(1)},
					itemB: {Frequency: model.IntPtr(9)},
				},
				"removed-category": {itemA: {Frequency: model.IntPtr(1)}},
			},
			ExpertBands: map[types.CategoryID]types.Band{
				catEmotional:       types.BandNone,
				"removed-category": types.BandHigh,
			},
		})
		gt.NoError(t, err).Required()

		gt.Map(t, saved.Snapshot.Ratings).HasKey(catEmotional)
		_, hasStale := saved.Snapshot.Ratings["removed-category"]
		gt.Bool(t, hasStale).False()
		_, hasStaleItem := saved.Snapshot.Ratings[catEmotional][itemB]
		gt.Bool(t, hasStaleItem).False()

		gt.Array(t, saved.Summary.Concordant).Length(1)
		gt.Value(t, saved.Summary.Concordant[0]).Equal(catEmotional)
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		_, err := uc.Assessment.ApplySnapshot(ctx, testWorkspaceID, a.ID, model.Snapshot{
			Ratings: map[types.CategoryID]map[types.ItemID]model.ItemRating{
				catEmotional: {itemA: {Frequency: model.IntPtr(-3)}},
			},
		})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestAssessmentUseCase_FinalizeAndReopen(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	archiver := &recordingArchiver{}
	m := metrics.New(prometheus.NewRegistry())

	uc := usecase.New(memory.New(), newTestRegistry("C0123"),
		usecase.WithNotifier(notifier),
		usecase.WithArchiver(archiver),
		usecase.WithMetrics(m),
	)

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Discordant", "")
	gt.NoError(t, err).Required()
	rateAll(t, uc.Assessment, a.ID, catQuantitative, itemA, 6, 6, 6)
	_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandHigh)
	gt.NoError(t, err).Required()
	_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catEmotional, types.BandNone)
	gt.NoError(t, err).Required()

	finalized, err := uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
	gt.NoError(t, err).Required()
	async.Wait()

	gt.Value(t, finalized.Status).Equal(types.AssessmentStatusFinal)
	gt.Value(t, finalized.FinalizedAt).NotNil()

	t.Run("archive is called once", func(t *testing.T) {
		gt.Array(t, archiver.calls).Length(1)
		gt.Value(t, archiver.calls[0].ID).Equal(a.ID)
		gt.Value(t, archiver.calls[0].Status).Equal(types.AssessmentStatusFinal)
	})

	t.Run("discordance triggers the notifier", func(t *testing.T) {
		notices := notifier.Notices()
		gt.Array(t, notices).Length(1)
		gt.Value(t, notices[0].channelID).Equal("C0123")
		gt.Value(t, notices[0].workspace.ID).Equal(testWorkspaceID)
		gt.Value(t, notices[0].discordant).Equal([]types.CategoryID{catQuantitative})
	})

	t.Run("metrics are recorded", func(t *testing.T) {
		gt.Value(t, testutil.ToFloat64(m.FinalizedTotal.WithLabelValues("test-ws"))).Equal(1.0)
		gt.Value(t, testutil.ToFloat64(m.AgreementTotal.WithLabelValues("test-ws", "DISAGREE"))).Equal(1.0)
		gt.Value(t, testutil.ToFloat64(m.AgreementTotal.WithLabelValues("test-ws", "AGREE"))).Equal(1.0)
	})

	t.Run("finalized assessment blocks edits", func(t *testing.T) {
		_, err := uc.Assessment.SetItemRating(ctx, testWorkspaceID, a.ID, catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(1))
		gt.Error(t, err).Is(usecase.ErrAssessmentFinalized)

		_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandLow)
		gt.Error(t, err).Is(usecase.ErrAssessmentFinalized)

		_, err = uc.Assessment.ApplySnapshot(ctx, testWorkspaceID, a.ID, model.Snapshot{})
		gt.Error(t, err).Is(usecase.ErrAssessmentFinalized)

		_, err = uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
		gt.Error(t, err).Is(usecase.ErrAssessmentFinalized)
	})

	t.Run("reopen re-enables edits", func(t *testing.T) {
		reopened, err := uc.Assessment.ReopenAssessment(ctx, testWorkspaceID, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, reopened.Status).Equal(types.AssessmentStatusDraft)
		gt.Value(t, reopened.FinalizedAt).Nil()

		_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandLow)
		gt.NoError(t, err).Required()

		_, err = uc.Assessment.ReopenAssessment(ctx, testWorkspaceID, a.ID)
		gt.Error(t, err).Is(usecase.ErrAssessmentNotFinalized)
	})
}

func TestAssessmentUseCase_FinalizeWithoutDiscordance(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	uc := usecase.New(memory.New(), newTestRegistry("C0123"), usecase.WithNotifier(notifier))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Concordant", "")
	gt.NoError(t, err).Required()
	_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandNone)
	gt.NoError(t, err).Required()

	_, err = uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
	gt.NoError(t, err).Required()
	async.Wait()

	gt.Array(t, notifier.Notices()).Length(0)
}

func TestAssessmentUseCase_FinalizeArchiveFailure(t *testing.T) {
	ctx := context.Background()
	archiver := &recordingArchiver{err: errors.New("bucket unavailable")}
	uc := usecase.New(memory.New(), newTestRegistry(""), usecase.WithArchiver(archiver))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Archive failure", "")
	gt.NoError(t, err).Required()

	_, err = uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
	gt.Value(t, err).NotNil()

	stored, err := uc.Assessment.GetAssessment(ctx, testWorkspaceID, a.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Status).Equal(types.AssessmentStatusDraft)
}

func TestAssessmentUseCase_FinalizeStoreFailureAfterArchive(t *testing.T) {
	repo := memory.New()
	archiver := &recordingArchiver{
		// The record disappears between archiving and storing.
		onPut: func(ctx context.Context, assessment *model.Assessment) {
			gt.NoError(t, repo.Assessment().Delete(ctx, testWorkspaceID, assessment.ID))
		},
	}
	uc := usecase.New(repo, newTestRegistry(""), usecase.WithArchiver(archiver))

	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelInfo, logging.FormatJSON))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Store failure", "")
	gt.NoError(t, err).Required()

	_, err = uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
	gt.Value(t, err).NotNil()
	gt.Array(t, archiver.calls).Length(1)

	out := buf.String()
	gt.S(t, out).Contains("not finalized")
	gt.S(t, out).Contains("gs://test-bucket/" + testWorkspaceID.String() + "/" + a.ID.String() + ".json")
}

func TestAssessmentUseCase_NotifierFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{err: errors.New("slack down")}
	uc := usecase.New(memory.New(), newTestRegistry("C0123"), usecase.WithNotifier(notifier))

	a, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Notify failure", "")
	gt.NoError(t, err).Required()
	_, err = uc.Assessment.SetExpertBand(ctx, testWorkspaceID, a.ID, catQuantitative, types.BandVeryHigh)
	gt.NoError(t, err).Required()

	finalized, err := uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, a.ID)
	gt.NoError(t, err).Required()
	async.Wait()

	gt.Value(t, finalized.Status).Equal(types.AssessmentStatusFinal)
	gt.Array(t, notifier.Notices()).Length(1)
}

func TestAssessmentUseCase_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), newTestRegistry(""))

	first, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "First", "")
	gt.NoError(t, err).Required()
	second, err := uc.Assessment.CreateAssessment(ctx, testWorkspaceID, "Second", "")
	gt.NoError(t, err).Required()
	_, err = uc.Assessment.FinalizeAssessment(ctx, testWorkspaceID, second.ID)
	gt.NoError(t, err).Required()

	all, err := uc.Assessment.ListAssessments(ctx, testWorkspaceID, nil)
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(2)

	final := types.AssessmentStatusFinal
	finals, err := uc.Assessment.ListAssessments(ctx, testWorkspaceID, &final)
	gt.NoError(t, err).Required()
	gt.Array(t, finals).Length(1)
	gt.Value(t, finals[0].ID).Equal(second.ID)

	bogus := types.AssessmentStatus("ARCHIVED")
	_, err = uc.Assessment.ListAssessments(ctx, testWorkspaceID, &bogus)
	gt.Error(t, err).Is(usecase.ErrInvalidInput)

	gt.NoError(t, uc.Assessment.DeleteAssessment(ctx, testWorkspaceID, first.ID)).Required()
	_, err = uc.Assessment.GetAssessment(ctx, testWorkspaceID, first.ID)
	gt.Error(t, err).Is(usecase.ErrAssessmentNotFound)

	err = uc.Assessment.DeleteAssessment(ctx, testWorkspaceID, first.ID)
	gt.Error(t, err).Is(usecase.ErrAssessmentNotFound)
}

func TestAssessmentUseCase_Evaluate(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.New(memory.New(), newTestRegistry(""), usecase.WithMetrics(m))

	// Scenario D: emotional aggregate 25 -> MEDIUM, expert HIGH -> discordant
	summary, err := uc.Assessment.Evaluate(ctx, testWorkspaceID, model.Snapshot{
		Ratings: map[types.CategoryID]map[types.ItemID]model.ItemRating{
			catEmotional: {itemA: {Frequency: model.IntPtr(10), Exposure: model.IntPtr(10), Intensity: model.IntPtr(5)}},
		},
		ExpertBands: map[types.CategoryID]types.Band{catEmotional: types.BandHigh},
	})
	gt.NoError(t, err).Required()

	c, ok := summary.Category(catEmotional)
	gt.Bool(t, ok).True()
	gt.Value(t, c.Aggregate).Equal(25)
	gt.Value(t, c.AutomaticBand).Equal(types.BandMedium)
	gt.Value(t, summary.Discordant).Equal([]types.CategoryID{catEmotional})
	gt.Value(t, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("test-ws"))).Equal(1.0)

	_, err = uc.Assessment.Evaluate(ctx, "no-such-ws", model.Snapshot{})
	gt.Error(t, err).Is(model.ErrWorkspaceNotFound)
}
