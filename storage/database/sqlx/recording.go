package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/recording"
)

const recordingColumns = "id, name, description, visibility, thumbnail_url, video_url, batch_id, upload_date, updated_at"

type recordingRepository struct {
	repo
}

var _ recording.Repository = (*recordingRepository)(nil)

func NewRecordingRepository(db core.DB) *recordingRepository {
	return &recordingRepository{repo{db: db}}
}

func (r recordingRepository) SaveRecording(ctx context.Context, rec recording.Recording) (recording.Recording, error) {
	q := `INSERT INTO recordings (` + recordingColumns + `) VALUES (:id, :name, :description, :visibility,
		:thumbnail_url, :video_url, :batch_id, :upload_date, :updated_at)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
			visibility = EXCLUDED.visibility, thumbnail_url = EXCLUDED.thumbnail_url, video_url = EXCLUDED.video_url,
			batch_id = EXCLUDED.batch_id, upload_date = EXCLUDED.upload_date, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, rec); err != nil {
		return recording.Recording{}, errors.Wrap(err, "saving recording")
	}
	return rec, nil
}

func (r recordingRepository) QueryRecordings(ctx context.Context) ([]recording.Recording, error) {
	recordings := make([]recording.Recording, 0)
	q := "SELECT " + recordingColumns + " FROM recordings ORDER BY upload_date DESC"
	if err := r.db.SelectContext(ctx, &recordings, q); err != nil {
		return nil, errors.Wrap(err, "querying recordings")
	}
	return recordings, nil
}
