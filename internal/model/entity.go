package model

import "time"

// RecordingStatus values for the recordings table.
const (
	RecordingStatusUploaded = "uploaded"
	RecordingStatusStored   = "stored" // no object store configured, kept locally only
	RecordingStatusFailed   = "failed"
)

// Recording - persisted metadata of one finalized capture artifact (GORM).
type Recording struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StreamKey string    `gorm:"size:255;not null;index"`
	ObjectKey string    `gorm:"size:255;not null;uniqueIndex"`
	Location  string    `gorm:"size:1024"`
	Status    string    `gorm:"size:20;not null"` // uploaded, stored, failed
	SizeBytes int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Recording) TableName() string { return "recordings" }
