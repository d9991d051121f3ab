package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tonote/notary-stream-service/internal/errs"
	"github.com/tonote/notary-stream-service/internal/model"
	"gorm.io/gorm"
)

// RecordingService persists finalized-artifact metadata.
type RecordingService struct {
	db *gorm.DB
}

// NewRecordingService creates a recording service.
func NewRecordingService(db *gorm.DB) *RecordingService {
	return &RecordingService{db: db}
}

// SaveArtifact stores one recording row. The id is assigned here.
func (s *RecordingService) SaveArtifact(ctx context.Context, rec *model.Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// Get returns one recording by id.
func (s *RecordingService) Get(ctx context.Context, id string) (*model.Recording, error) {
	var rec model.Recording
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRecordingNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns recordings, optionally filtered by stream key, newest first.
func (s *RecordingService) List(ctx context.Context, streamKey string) ([]model.Recording, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if streamKey != "" {
		q = q.Where("stream_key = ?", streamKey)
	}
	var out []model.Recording
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
