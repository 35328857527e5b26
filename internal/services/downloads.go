package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/storage"
)

// DownloadURLTTL is how long a signed download link stays valid.
const DownloadURLTTL = 60 * time.Second

// DownloadVariant selects which file of a material is delivered.
type DownloadVariant string

const (
	VariantFull    DownloadVariant = "completo"
	VariantTrimmed DownloadVariant = "sem-sangria"
)

// ParseDownloadVariant maps unknown values to VariantFull.
func ParseDownloadVariant(s string) DownloadVariant {
	if DownloadVariant(s) == VariantTrimmed {
		return VariantTrimmed
	}
	return VariantFull
}

// DownloadTicket is a granted download.
type DownloadTicket struct {
	URL       string
	ExpiresAt time.Time
	Material  *models.Material
}

// DownloadService gates material downloads behind access checks and
// hands out short-lived links to the private bucket.
type DownloadService struct {
	db     *gorm.DB
	bucket storage.Bucket
	log    zerolog.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewDownloadService(db *gorm.DB, bucket storage.Bucket, log zerolog.Logger) *DownloadService {
	return &DownloadService{db: db, bucket: bucket, log: log, ttl: DownloadURLTTL, now: time.Now}
}

// SetURLTTL overrides the link lifetime. Non-positive values are ignored.
func (s *DownloadService) SetURLTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// RequestDownload returns a signed URL for the material file. Without access
// it fails with ErrAccessDenied before touching the store or the bucket.
// History and the download counter are recorded best effort.
func (s *DownloadService) RequestDownload(ctx context.Context, userID, materialID uint, accessAllowed bool, variant DownloadVariant) (DownloadTicket, error) {
	if !accessAllowed {
		return DownloadTicket{}, ErrAccessDenied
	}

	var m models.Material
	err := s.db.WithContext(ctx).Where("id = ? AND active = ?", materialID, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DownloadTicket{}, ErrNotFound
	}
	if err != nil {
		return DownloadTicket{}, persistence("load material", err)
	}

	key := m.FileKey
	if variant == VariantTrimmed && m.HasTrimmed() {
		key = m.TrimmedFileKey
	}
	url, err := s.bucket.SignedURL(ctx, key, s.ttl)
	if err != nil {
		return DownloadTicket{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := s.now()
	s.record(ctx, userID, m.ID, now)
	m.DownloadCount++

	return DownloadTicket{URL: url, ExpiresAt: now.Add(s.ttl), Material: &m}, nil
}

func (s *DownloadService) record(ctx context.Context, userID, materialID uint, at time.Time) {
	db := s.db.WithContext(ctx)
	hist := &models.DownloadHistory{UserID: userID, MaterialID: materialID, DownloadedAt: at}
	if err := db.Create(hist).Error; err != nil {
		s.log.Warn().Err(err).Uint("material_id", materialID).Msg("download history insert failed")
	}
	err := db.Model(&models.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	if err != nil {
		s.log.Warn().Err(err).Uint("material_id", materialID).Msg("download counter update failed")
	}
}

// History returns the user's most recent downloads with their materials.
func (s *DownloadService) History(ctx context.Context, userID uint, limit int) ([]models.DownloadHistory, error) {
	var list []models.DownloadHistory
	err := s.db.WithContext(ctx).
		Preload("Material").
		Where("user_id = ?", userID).
		Order("downloaded_at DESC").Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, persistence("list downloads", err)
	}
	return list, nil
}
