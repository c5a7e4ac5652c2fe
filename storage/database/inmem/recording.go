package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/recording"
)

type recordingRepository struct {
	db *recordingTable
}

var _ recording.Repository = (*recordingRepository)(nil)

func NewRecordingRepository(db *DB) *recordingRepository {
	return &recordingRepository{db: db.recording}
}

func (repo *recordingRepository) SaveRecording(_ context.Context, rec recording.Recording) (recording.Recording, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		repo.db.order = append(repo.db.order, rec.ID)
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *recordingRepository) QueryRecordings(context.Context) ([]recording.Recording, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recordings := make([]recording.Recording, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		recordings = append(recordings, *repo.db.table[id])
	}
	return recordings, nil
}
