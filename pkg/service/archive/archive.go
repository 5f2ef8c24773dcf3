package archive

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"google.golang.org/api/option"
)

// Record is the archived JSON object of a finalized assessment
type Record struct {
	WorkspaceID types.WorkspaceID  `json:"workspace_id"`
	Workspace   string             `json:"workspace"`
	ID          model.AssessmentID `json:"id"`
	Title       string             `json:"title"`
	SubjectName string             `json:"subject_name,omitempty"`
	FinalizedAt *time.Time         `json:"finalized_at,omitempty"`
	Snapshot    model.Snapshot     `json:"snapshot"`
	Summary     model.Summary      `json:"summary"`
}

// NewRecord builds the archived representation of assessment
func NewRecord(workspace model.Workspace, assessment *model.Assessment) *Record {
	return &Record{
		WorkspaceID: workspace.ID,
		Workspace:   workspace.Name,
		ID:          assessment.ID,
		Title:       assessment.Title,
		SubjectName: assessment.SubjectName,
		FinalizedAt: assessment.FinalizedAt,
		Snapshot:    assessment.Snapshot,
		Summary:     assessment.Summary,
	}
}

// ObjectPath returns {prefix}/{workspace}/{id}.json
func ObjectPath(prefix string, workspaceID types.WorkspaceID, id model.AssessmentID) string {
	return path.Join(prefix, workspaceID.String(), id.String()+".json")
}

// Archiver writes finalized assessments to a Cloud Storage bucket
type Archiver struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Archiver = &Archiver{}

// New creates an Archiver for bucket. Objects are written under prefix.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Archiver, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Put uploads the assessment record, replacing any previous object for the
// same assessment. It returns the gs:// URI of the written object.
func (a *Archiver) Put(ctx context.Context, workspace model.Workspace, assessment *model.Assessment) (string, error) {
	data, err := json.Marshal(NewRecord(workspace, assessment))
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode archive record", goerr.V("assessment_id", assessment.ID))
	}

	objectPath := ObjectPath(a.prefix, workspace.ID, assessment.ID)
	w := a.client.Bucket(a.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", objectPath))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", objectPath))
	}

	return "gs://" + a.bucket + "/" + objectPath, nil
}

// Close releases the storage client
func (a *Archiver) Close() error {
	return a.client.Close()
}
