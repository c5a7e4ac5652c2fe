package recording

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lyceum/core"
)

// Visibilities
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type (
	Recording struct {
		ID           string      `json:"id" db:"id"`
		Name         string      `json:"name" db:"name"`
		Description  string      `json:"description" db:"description"`
		Visibility   string      `json:"visibility" db:"visibility"`
		ThumbnailURL null.String `json:"thumbnailUrl" db:"thumbnail_url"`
		VideoURL     string      `json:"videoUrl" db:"video_url"`
		BatchID      null.String `json:"batchId" db:"batch_id"`
		UploadDate   string      `json:"uploadDate" db:"upload_date"` // YYYY-MM-DD
		UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`   // UTC
	}

	// SaveRecording creates a Recording, or replaces the one with the given ID.
	SaveRecording struct {
		ID           string `json:"id"`
		Name         string `json:"name" validate:"required"`
		Description  string `json:"description" validate:"required"`
		Visibility   string `json:"visibility" validate:"required,oneof=public private"`
		ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
		VideoURL     string `json:"videoUrl" validate:"required,url"`
		BatchID      string `json:"batchId"`
		UploadDate   string `json:"uploadDate" validate:"required,isodate"`
	}

	Repository interface {
		// SaveRecording inserts rec or updates the existing row with the same ID.
		SaveRecording(ctx context.Context, rec Recording) (Recording, error)
		QueryRecordings(ctx context.Context) ([]Recording, error)
	}

	Service struct {
		repo Repository
	}
)

func (sr *SaveRecording) Validate(validate *validator.Validate) error {
	sr.ID = core.CleanString(sr.ID)
	sr.Name = core.CleanString(sr.Name)
	sr.Description = core.CleanString(sr.Description)
	sr.Visibility = core.CleanString(sr.Visibility, true /* lower */)
	sr.ThumbnailURL = core.CleanString(sr.ThumbnailURL)
	sr.VideoURL = core.CleanString(sr.VideoURL)
	sr.BatchID = core.CleanString(sr.BatchID)
	sr.UploadDate = core.CleanString(sr.UploadDate)
	return validate.Struct(sr)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save returns the stored Recording and whether it was created.
func (svc *Service) Save(ctx context.Context, sr SaveRecording) (Recording, bool, error) {
	created := sr.ID == ""
	if created {
		sr.ID = core.NewID()
	}
	rec, err := svc.repo.SaveRecording(ctx, Recording{
		ID:           sr.ID,
		Name:         sr.Name,
		Description:  sr.Description,
		Visibility:   sr.Visibility,
		ThumbnailURL: null.NewString(sr.ThumbnailURL, sr.ThumbnailURL != ""),
		VideoURL:     sr.VideoURL,
		BatchID:      null.NewString(sr.BatchID, sr.BatchID != ""),
		UploadDate:   sr.UploadDate,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Recording{}, false, errors.Wrap(err, "saving recording")
	}
	return rec, created, nil
}

func (svc *Service) Query(ctx context.Context) ([]Recording, error) {
	return svc.repo.QueryRecordings(ctx)
}
