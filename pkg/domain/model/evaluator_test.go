package model_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m-mizutani/gt"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

const (
	catQuantitative types.CategoryID = "quantitative-demands"
	catEmotional    types.CategoryID = "emotional-demands"
	catUnknown      types.CategoryID = "no-such-category"

	itemA types.ItemID = "uneven-distribution"
	itemB types.ItemID = "time-pressure"
	itemC types.ItemID = "overtime"
)

func newTestProfile() *config.RiskProfile {
	return &config.RiskProfile{
		Categories: []config.Category{
			{
				ID:   catQuantitative,
				Name: "Quantitative demands",
				Items: []config.Item{
					{ID: itemA, Label: "Work is unevenly distributed"},
					{ID: itemB, Label: "Tasks must be done quickly"},
					{ID: itemC, Label: "Work continues after hours"},
				},
				Thresholds: [types.BandCount]float64{12.6, 25.3, 38, 50.6, 63},
			},
			{
				ID:   catEmotional,
				Name: "Emotional demands",
				Items: []config.Item{
					{ID: itemA, Label: "Exposure to distressing situations"},
				},
				Thresholds: [types.BandCount]float64{10, 20, 30, 40, 50},
			},
		},
	}
}

func rate(e *model.Evaluator, cat types.CategoryID, item types.ItemID, f, x, i int) {
	e.SetItemRating(cat, item, types.RatingFieldFrequency, model.IntPtr(f))
	e.SetItemRating(cat, item, types.RatingFieldExposure, model.IntPtr(x))
	e.SetItemRating(cat, item, types.RatingFieldIntensity, model.IntPtr(i))
}

func TestAutomaticBandFor_BoundaryInclusive(t *testing.T) {
	thresholds := [types.BandCount]float64{10, 20, 30, 40, 50}

	tests := []struct {
		aggregate int
		want      types.Band
	}{
		{0, types.BandNone},
		{10, types.BandNone},
		{11, types.BandLow},
		{20, types.BandLow},
		{21, types.BandMedium},
		{30, types.BandMedium},
		{40, types.BandHigh},
		{41, types.BandVeryHigh},
		{50, types.BandVeryHigh},
		{500, types.BandVeryHigh},
	}

	for _, tt := range tests {
		gt.Value(t, model.AutomaticBandFor(thresholds, tt.aggregate)).Equal(tt.want)
	}
}

func TestAutomaticBandFor_Monotonic(t *testing.T) {
	thresholds := [types.BandCount]float64{12.6, 25.3, 38, 50.6, 63}

	prev := model.AutomaticBandFor(thresholds, 0).Rank()
	for a := 1; a <= 100; a++ {
		rank := model.AutomaticBandFor(thresholds, a).Rank()
		if rank < prev {
			t.Fatalf("band decreased at aggregate %d: %d -> %d", a, prev, rank)
		}
		prev = rank
	}
}

func TestEvaluator_ScenarioA(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())

	rate(e, catQuantitative, itemA, 2, 2, 2)
	rate(e, catQuantitative, itemB, 3, 3, 3)
	rate(e, catQuantitative, itemC, 1, 1, 1)

	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(18)
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandLow)
}

func TestEvaluator_ScenarioB(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemA, 2, 2, 2)
	rate(e, catQuantitative, itemB, 3, 3, 3)
	rate(e, catQuantitative, itemC, 1, 1, 1)

	e.SetExpertBand(catQuantitative, types.BandMedium)

	c := e.Concordance()
	gt.Array(t, c.Discordant).Length(1)
	gt.Value(t, c.Discordant[0]).Equal(catQuantitative)
	gt.Array(t, c.Concordant).Length(0)
	gt.Value(t, e.Agreement(catQuantitative)).Equal(types.AgreementDisagree)

	e.SetExpertBand(catQuantitative, types.BandLow)
	c = e.Concordance()
	gt.Array(t, c.Concordant).Length(1)
	gt.Array(t, c.Discordant).Length(0)
	gt.Value(t, e.Agreement(catQuantitative)).Equal(types.AgreementAgree)
}

func TestEvaluator_ScenarioC(t *testing.T) {
	t.Run("unrated category reports NONE by default", func(t *testing.T) {
		e := model.NewEvaluator(newTestProfile())
		gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(0)
		gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandNone)
	})

	t.Run("not-applicable policy reports no band until an item is complete", func(t *testing.T) {
		e := model.NewEvaluator(newTestProfile(), model.WithUnratedPolicy(types.UnratedNotApplicable))
		gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandNotApplicable)

		e.SetExpertBand(catQuantitative, types.BandNone)
		gt.Value(t, e.Agreement(catQuantitative)).Equal(types.AgreementIndeterminate)

		rate(e, catQuantitative, itemA, 0, 0, 0)
		gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandNone)
		gt.Value(t, e.Agreement(catQuantitative)).Equal(types.AgreementAgree)
	})

	t.Run("policy is taken from the profile", func(t *testing.T) {
		profile := newTestProfile()
		profile.UnratedPolicy = types.UnratedNotApplicable
		e := model.NewEvaluator(profile)
		gt.Value(t, e.AutomaticBand(catEmotional)).Equal(types.BandNotApplicable)
	})
}

func TestEvaluator_ScenarioD(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemA, 2, 2, 2)
	rate(e, catQuantitative, itemB, 3, 3, 3)
	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(15)

	e.SetItemRating(catQuantitative, itemB, types.RatingFieldIntensity, nil)
	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(6)

	r, ok := e.ItemRating(catQuantitative, itemB)
	gt.B(t, ok).True()
	_, complete := r.Total()
	gt.B(t, complete).False()
	gt.Value(t, *r.Frequency).Equal(3)
}

func TestEvaluator_PartialItemExcluded(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	e.SetItemRating(catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(5))
	e.SetItemRating(catQuantitative, itemA, types.RatingFieldExposure, model.IntPtr(5))

	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(0)

	e.SetItemRating(catQuantitative, itemA, types.RatingFieldIntensity, model.IntPtr(0))
	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(10)
}

func TestEvaluator_Idempotent(t *testing.T) {
	once := model.NewEvaluator(newTestProfile())
	twice := model.NewEvaluator(newTestProfile())

	rate(once, catQuantitative, itemA, 4, 5, 6)
	rate(twice, catQuantitative, itemA, 4, 5, 6)
	twice.SetItemRating(catQuantitative, itemA, types.RatingFieldExposure, model.IntPtr(5))

	gt.Value(t, twice.CategoryAggregate(catQuantitative)).Equal(once.CategoryAggregate(catQuantitative))
	gt.Value(t, twice.AutomaticBand(catQuantitative)).Equal(once.AutomaticBand(catQuantitative))
}

func TestEvaluator_MonotonicItemIncrease(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemB, 3, 3, 3)
	rate(e, catQuantitative, itemC, 2, 2, 2)

	prev := -1
	for v := 0; v <= 30; v++ {
		rate(e, catQuantitative, itemA, 7, 7, v)
		rank := e.AutomaticBand(catQuantitative).Rank()
		if rank < prev {
			t.Fatalf("band decreased when intensity rose to %d", v)
		}
		prev = rank
	}
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandVeryHigh)
}

func TestEvaluator_NoUpperBound(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catEmotional, itemA, 100, 0, 0)

	gt.Value(t, e.CategoryAggregate(catEmotional)).Equal(100)
	gt.Value(t, e.AutomaticBand(catEmotional)).Equal(types.BandVeryHigh)
}

func TestEvaluator_HugeSubScoresSaturate(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemA, 5, 5, 5)
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandLow)
	before := e.AutomaticBand(catQuantitative).Rank()

	e.SetItemRating(catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(math.MaxInt))
	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(math.MaxInt)
	gt.N(t, e.AutomaticBand(catQuantitative).Rank()).GreaterOrEqual(before)
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandVeryHigh)

	// A second maxed item keeps the aggregate pinned instead of wrapping.
	rate(e, catQuantitative, itemB, math.MaxInt, math.MaxInt, math.MaxInt)
	gt.Value(t, e.CategoryAggregate(catQuantitative)).Equal(math.MaxInt)
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandVeryHigh)

	total, ok := model.ItemRating{
		Frequency: model.IntPtr(math.MaxInt),
		Exposure:  model.IntPtr(1),
		Intensity: model.IntPtr(1),
	}.Total()
	gt.B(t, ok).True()
	gt.Value(t, total).Equal(math.MaxInt)
}

func TestEvaluator_UnknownReferencesIgnored(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())

	e.SetItemRating(catUnknown, itemA, types.RatingFieldFrequency, model.IntPtr(1))
	e.SetItemRating(catEmotional, itemB, types.RatingFieldFrequency, model.IntPtr(1))
	e.SetItemRating(catEmotional, itemA, types.RatingField("duration"), model.IntPtr(1))
	e.SetExpertBand(catUnknown, types.BandHigh)
	e.SetExpertBand(catEmotional, types.Band("SEVERE"))

	gt.Value(t, e.CategoryAggregate(catUnknown)).Equal(0)
	gt.Value(t, e.AutomaticBand(catUnknown)).Equal(types.BandNotApplicable)
	gt.Value(t, e.ExpertBand(catEmotional)).Equal(types.BandNotApplicable)
	gt.Value(t, e.Agreement(catUnknown)).Equal(types.AgreementIndeterminate)

	s := e.Snapshot()
	gt.Value(t, len(s.Ratings)).Equal(0)
	gt.Value(t, len(s.ExpertBands)).Equal(0)
}

func TestEvaluator_ConcordanceCompleteness(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemA, 7, 7, 7)
	e.SetExpertBand(catQuantitative, types.BandLow)
	e.SetExpertBand(catEmotional, types.BandNone)

	c := e.Concordance()
	seen := map[types.CategoryID]int{}
	for _, id := range c.Concordant {
		seen[id]++
	}
	for _, id := range c.Discordant {
		seen[id]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("category %s appears %d times", id, n)
		}
	}
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandLow)
	gt.Value(t, c.Concordant).Equal([]types.CategoryID{catQuantitative, catEmotional})
	gt.Value(t, c.Discordant).Equal([]types.CategoryID{})

	e.SetExpertBand(catQuantitative, types.BandHigh)
	c = e.Concordance()
	gt.Value(t, c.Concordant).Equal([]types.CategoryID{catEmotional})
	gt.Value(t, c.Discordant).Equal([]types.CategoryID{catQuantitative})

	e.SetExpertBand(catEmotional, types.BandNotApplicable)
	c = e.Concordance()
	gt.Value(t, c.Concordant).Equal([]types.CategoryID{})
	gt.Value(t, c.Discordant).Equal([]types.CategoryID{catQuantitative})
}

func TestEvaluator_SnapshotRestore(t *testing.T) {
	src := model.NewEvaluator(newTestProfile())
	rate(src, catQuantitative, itemA, 2, 2, 2)
	src.SetItemRating(catQuantitative, itemB, types.RatingFieldFrequency, model.IntPtr(4))
	src.SetExpertBand(catQuantitative, types.BandMedium)

	snapshot := src.Snapshot()
	snapshot.Ratings[catUnknown] = map[types.ItemID]model.ItemRating{
		itemA: {Frequency: model.IntPtr(1)},
	}
	snapshot.Ratings[catEmotional] = map[types.ItemID]model.ItemRating{
		itemC: {Frequency: model.IntPtr(1)},
	}
	snapshot.ExpertBands[catUnknown] = types.BandHigh

	dst := model.NewEvaluator(newTestProfile())
	dst.Restore(snapshot)

	if diff := cmp.Diff(src.Summary(), dst.Summary()); diff != "" {
		t.Errorf("summary mismatch (-src +dst):\n%s", diff)
	}
	if diff := cmp.Diff(src.Snapshot(), dst.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-src +dst):\n%s", diff)
	}
}

func TestEvaluator_RestoreIsolation(t *testing.T) {
	snapshot := model.Snapshot{
		Ratings: map[types.CategoryID]map[types.ItemID]model.ItemRating{
			catEmotional: {itemA: {Frequency: model.IntPtr(1), Exposure: model.IntPtr(1), Intensity: model.IntPtr(1)}},
		},
	}

	e := model.NewEvaluator(newTestProfile())
	e.Restore(snapshot)
	*snapshot.Ratings[catEmotional][itemA].Frequency = 50

	gt.Value(t, e.CategoryAggregate(catEmotional)).Equal(3)
}

func TestEvaluator_Summary(t *testing.T) {
	e := model.NewEvaluator(newTestProfile())
	rate(e, catQuantitative, itemA, 2, 2, 2)
	rate(e, catQuantitative, itemB, 3, 3, 3)
	rate(e, catQuantitative, itemC, 1, 1, 1)
	e.SetExpertBand(catQuantitative, types.BandMedium)

	want := model.Summary{
		Categories: []model.CategorySummary{
			{
				CategoryID:    catQuantitative,
				Aggregate:     18,
				RatedItems:    3,
				AutomaticBand: types.BandLow,
				ExpertBand:    types.BandMedium,
				Agreement:     types.AgreementDisagree,
			},
			{
				CategoryID:    catEmotional,
				Aggregate:     0,
				RatedItems:    0,
				AutomaticBand: types.BandNone,
				ExpertBand:    types.BandNotApplicable,
				Agreement:     types.AgreementIndeterminate,
			},
		},
		Concordance: model.Concordance{
			Concordant: []types.CategoryID{},
			Discordant: []types.CategoryID{catQuantitative},
		},
	}

	if diff := cmp.Diff(want, e.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	gt.B(t, e.Summary().HasDiscordance()).True()
}

func TestEvaluator_NilProfile(t *testing.T) {
	e := model.NewEvaluator(nil)
	e.SetItemRating(catQuantitative, itemA, types.RatingFieldFrequency, model.IntPtr(1))

	gt.Array(t, e.Summary().Categories).Length(0)
	gt.Value(t, e.AutomaticBand(catQuantitative)).Equal(types.BandNotApplicable)
}
