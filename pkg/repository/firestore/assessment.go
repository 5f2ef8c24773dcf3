package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Field names used in queries. They must match the firestore tags below and
// the indexes declared by the migrate command.
const (
	FieldStatus    = "status"
	FieldUpdatedAt = "updated_at"

	// AssessmentCollection is the subcollection ID under each workspace document
	AssessmentCollection = "assessments"
)

type itemRatingDoc struct {
	Frequency *int64 `firestore:"frequency"`
	Exposure  *int64 `firestore:"exposure"`
	Intensity *int64 `firestore:"intensity"`
}

type categorySummaryDoc struct {
	CategoryID    string `firestore:"category_id"`
	Aggregate     int64  `firestore:"aggregate"`
	RatedItems    int64  `firestore:"rated_items"`
	AutomaticBand string `firestore:"automatic_band"`
	ExpertBand    string `firestore:"expert_band"`
	Agreement     string `firestore:"agreement"`
}

// assessmentDoc is the Firestore document representation of model.Assessment.
// Map keys are plain strings as Firestore does not decode named key types.
type assessmentDoc struct {
	ID          string                              `firestore:"id"`
	Title       string                              `firestore:"title"`
	SubjectName string                              `firestore:"subject_name"`
	Status      string                              `firestore:"status"`
	Ratings     map[string]map[string]itemRatingDoc `firestore:"ratings"`
	ExpertBands map[string]string                   `firestore:"expert_bands"`
	Categories  []categorySummaryDoc                `firestore:"categories"`
	Concordant  []string                            `firestore:"concordant"`
	Discordant  []string                            `firestore:"discordant"`
	CreatedAt   time.Time                           `firestore:"created_at"`
	UpdatedAt   time.Time                           `firestore:"updated_at"`
	FinalizedAt *time.Time                          `firestore:"finalized_at"`
}

func toInt64Ptr(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func toIntPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func toCategoryStrings(ids []types.CategoryID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func fromCategoryStrings(ids []string) []types.CategoryID {
	out := make([]types.CategoryID, len(ids))
	for i, id := range ids {
		out[i] = types.CategoryID(id)
	}
	return out
}

func toAssessmentDoc(a *model.Assessment) *assessmentDoc {
	doc := &assessmentDoc{
		ID:          a.ID.String(),
		Title:       a.Title,
		SubjectName: a.SubjectName,
		Status:      a.Status.Normalize().String(),
		Ratings:     make(map[string]map[string]itemRatingDoc, len(a.Snapshot.Ratings)),
		ExpertBands: make(map[string]string, len(a.Snapshot.ExpertBands)),
		Categories:  make([]categorySummaryDoc, len(a.Summary.Categories)),
		Concordant:  toCategoryStrings(a.Summary.Concordant),
		Discordant:  toCategoryStrings(a.Summary.Discordant),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		FinalizedAt: a.FinalizedAt,
	}

	for catID, items := range a.Snapshot.Ratings {
		m := make(map[string]itemRatingDoc, len(items))
		for itemID, r := range items {
			m[itemID.String()] = itemRatingDoc{
				Frequency: toInt64Ptr(r.Frequency),
				Exposure:  toInt64Ptr(r.Exposure),
				Intensity: toInt64Ptr(r.Intensity),
			}
		}
		doc.Ratings[catID.String()] = m
	}
	for catID, band := range a.Snapshot.ExpertBands {
		doc.ExpertBands[catID.String()] = band.String()
	}
	for i, c := range a.Summary.Categories {
		doc.Categories[i] = categorySummaryDoc{
			CategoryID:    c.CategoryID.String(),
			Aggregate:     int64(c.Aggregate),
			RatedItems:    int64(c.RatedItems),
			AutomaticBand: c.AutomaticBand.String(),
			ExpertBand:    c.ExpertBand.String(),
			Agreement:     c.Agreement.String(),
		}
	}

	return doc
}

func fromAssessmentDoc(d *assessmentDoc) *model.Assessment {
	a := &model.Assessment{
		ID:          model.AssessmentID(d.ID),
		Title:       d.Title,
		SubjectName: d.SubjectName,
		Status:      types.AssessmentStatus(d.Status).Normalize(),
		Snapshot: model.Snapshot{
			Ratings:     make(map[types.CategoryID]map[types.ItemID]model.ItemRating, len(d.Ratings)),
			ExpertBands: make(map[types.CategoryID]types.Band, len(d.ExpertBands)),
		},
		Summary: model.Summary{
			Categories: make([]model.CategorySummary, len(d.Categories)),
			Concordance: model.Concordance{
				Concordant: fromCategoryStrings(d.Concordant),
				Discordant: fromCategoryStrings(d.Discordant),
			},
		},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		FinalizedAt: d.FinalizedAt,
	}

	for catID, items := range d.Ratings {
		m := make(map[types.ItemID]model.ItemRating, len(items))
		for itemID, r := range items {
			m[types.ItemID(itemID)] = model.ItemRating{
				Frequency: toIntPtr(r.Frequency),
				Exposure:  toIntPtr(r.Exposure),
				Intensity: toIntPtr(r.Intensity),
			}
		}
		a.Snapshot.Ratings[types.CategoryID(catID)] = m
	}
	for catID, band := range d.ExpertBands {
		a.Snapshot.ExpertBands[types.CategoryID(catID)] = types.Band(band)
	}
	for i, c := range d.Categories {
		a.Summary.Categories[i] = model.CategorySummary{
			CategoryID:    types.CategoryID(c.CategoryID),
			Aggregate:     int(c.Aggregate),
			RatedItems:    int(c.RatedItems),
			AutomaticBand: types.Band(c.AutomaticBand),
			ExpertBand:    types.Band(c.ExpertBand),
			Agreement:     types.Agreement(c.Agreement),
		}
	}

	return a
}

type assessmentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssessmentRepository(client *firestore.Client) *assessmentRepository {
	return &assessmentRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *assessmentRepository) workspacesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_workspaces"
	}
	return "workspaces"
}

// assessmentsCollection returns the subcollection path:
// workspaces/{workspaceID}/assessments
func (r *assessmentRepository) assessmentsCollection(workspaceID types.WorkspaceID) *firestore.CollectionRef {
	return r.client.Collection(r.workspacesCollection()).Doc(workspaceID.String()).Collection(AssessmentCollection)
}

func (r *assessmentRepository) Create(ctx context.Context, workspaceID types.WorkspaceID, a *model.Assessment) (*model.Assessment, error) {
	created := a.Clone()
	if created.ID == "" {
		created.ID = model.NewAssessmentID()
	}
	now := time.Now().UTC()
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.assessmentsCollection(workspaceID).Doc(created.ID.String())
	if _, err := docRef.Create(ctx, toAssessmentDoc(created)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "assessment already exists", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create assessment", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *assessmentRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) (*model.Assessment, error) {
	docSnap, err := r.assessmentsCollection(workspaceID).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
				goerr.V("workspace_id", workspaceID),
				goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V("id", id))
	}

	var doc assessmentDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode assessment", goerr.V("id", id))
	}

	return fromAssessmentDoc(&doc), nil
}

func (r *assessmentRepository) List(ctx context.Context, workspaceID types.WorkspaceID, opts ...interfaces.ListAssessmentOption) ([]*model.Assessment, error) {
	cfg := interfaces.BuildListAssessmentConfig(opts...)

	query := r.assessmentsCollection(workspaceID).Query
	if s := cfg.Status(); s != nil {
		query = query.Where(FieldStatus, "==", s.String())
	}
	query = query.OrderBy(FieldUpdatedAt, firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	assessments := []*model.Assessment{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assessments", goerr.V("workspace_id", workspaceID))
		}

		var doc assessmentDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode assessment", goerr.V("doc_id", docSnap.Ref.ID))
		}
		assessments = append(assessments, fromAssessmentDoc(&doc))
	}

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, workspaceID types.WorkspaceID, a *model.Assessment) (*model.Assessment, error) {
	docRef := r.assessmentsCollection(workspaceID).Doc(a.ID.String())

	var updated *model.Assessment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
					goerr.V("workspace_id", workspaceID),
					goerr.V("id", a.ID))
			}
			return goerr.Wrap(err, "failed to check assessment existence", goerr.V("id", a.ID))
		}

		var existing assessmentDoc
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode assessment", goerr.V("id", a.ID))
		}

		updated = a.Clone()
		updated.Status = updated.Status.Normalize()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(docRef, toAssessmentDoc(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V("id", a.ID))
	}

	return updated, nil
}

func (r *assessmentRepository) Delete(ctx context.Context, workspaceID types.WorkspaceID, id model.AssessmentID) error {
	docRef := r.assessmentsCollection(workspaceID).Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "assessment not found",
				goerr.V("workspace_id", workspaceID),
				goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check assessment existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete assessment", goerr.V("id", id))
	}

	return nil
}
