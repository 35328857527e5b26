package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/search"
	"github.com/diewo77/festakit/internal/storage"
)

// Upload is one file received from the admin form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MaterialInput is the admin material form.
type MaterialInput struct {
	Title       string
	Description string
	CategoryID  uint
	ThemeID     uint
	PieceTypeID uint
	FormatID    uint
	Premium     bool
	Active      bool

	// File is required on create; on update a nil upload keeps the current blob.
	File        *Upload
	TrimmedFile *Upload
	Preview     *Upload
}

type stagedBlob struct {
	bucket storage.Bucket
	key    string
}

// MaterialAdmin manages catalog entries and their files. Blobs are uploaded
// under fresh keys before the row is written; a failed write removes them again.
type MaterialAdmin struct {
	db       *gorm.DB
	files    storage.Bucket
	previews storage.Bucket
	indexer  search.Indexer
	log      zerolog.Logger
}

func NewMaterialAdmin(db *gorm.DB, files, previews storage.Bucket, indexer search.Indexer, log zerolog.Logger) *MaterialAdmin {
	if indexer == nil {
		indexer = search.Noop{}
	}
	return &MaterialAdmin{db: db, files: files, previews: previews, indexer: indexer, log: log}
}

// List returns every material, inactive ones included, newest first.
func (a *MaterialAdmin) List(ctx context.Context) ([]models.Material, error) {
	var list []models.Material
	err := a.db.WithContext(ctx).
		Preload("Category").Preload("Theme").Preload("PieceType").Preload("Format").
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, persistence("list materials", err)
	}
	return list, nil
}

// Get returns one material regardless of its active flag.
func (a *MaterialAdmin) Get(ctx context.Context, id uint) (*models.Material, error) {
	var m models.Material
	err := a.db.WithContext(ctx).
		Preload("Category").Preload("Theme").Preload("PieceType").Preload("Format").
		First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistence("get material", err)
	}
	return &m, nil
}

func validateMaterial(in MaterialInput, creating bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return newValidationError("Informe o título do material.")
	}
	if creating && in.File == nil {
		return newValidationError("Selecione o arquivo para download.")
	}
	return nil
}

// Create uploads the files and inserts the material.
func (a *MaterialAdmin) Create(ctx context.Context, in MaterialInput) (*models.Material, error) {
	if err := validateMaterial(in, true); err != nil {
		return nil, err
	}

	m := &models.Material{}
	applyMaterialInput(m, in)

	staged, err := a.stage(ctx, m, in)
	if err != nil {
		return nil, err
	}
	if err := a.db.WithContext(ctx).Create(m).Error; err != nil {
		a.discard(ctx, staged)
		return nil, persistence("create material", err)
	}

	a.index(ctx, m)
	return m, nil
}

// Update applies the form to an existing material. Files are replaced only
// when a new upload is given; replaced blobs are removed after the write.
func (a *MaterialAdmin) Update(ctx context.Context, id uint, in MaterialInput) (*models.Material, error) {
	if err := validateMaterial(in, false); err != nil {
		return nil, err
	}
	m, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *m

	applyMaterialInput(m, in)
	// Associations were preloaded for the old ids; the foreign keys are authoritative.
	m.Category, m.Theme, m.PieceType, m.Format = nil, nil, nil, nil

	staged, err := a.stage(ctx, m, in)
	if err != nil {
		return nil, err
	}
	if err := a.db.WithContext(ctx).Select("*").Omit("CreatedAt", "DownloadCount").Updates(m).Error; err != nil {
		a.discard(ctx, staged)
		return nil, persistence("update material", err)
	}

	var replaced []stagedBlob
	if old.FileKey != m.FileKey {
		replaced = append(replaced, stagedBlob{a.files, old.FileKey})
	}
	if old.TrimmedFileKey != "" && old.TrimmedFileKey != m.TrimmedFileKey {
		replaced = append(replaced, stagedBlob{a.files, old.TrimmedFileKey})
	}
	if old.PreviewKey != "" && old.PreviewKey != m.PreviewKey {
		replaced = append(replaced, stagedBlob{a.previews, old.PreviewKey})
	}
	a.discard(ctx, replaced)

	a.index(ctx, m)
	return m, nil
}

// Delete hides the material from the catalog. Files are kept.
func (a *MaterialAdmin) Delete(ctx context.Context, id uint) error {
	res := a.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return persistence("delete material", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if err := a.indexer.RemoveMaterial(ctx, id); err != nil {
		a.log.Warn().Err(err).Uint("material_id", id).Msg("search index removal failed")
	}
	return nil
}

func applyMaterialInput(m *models.Material, in MaterialInput) {
	m.Title = strings.TrimSpace(in.Title)
	m.Description = strings.TrimSpace(in.Description)
	m.CategoryID = optionalID(in.CategoryID)
	m.ThemeID = optionalID(in.ThemeID)
	m.PieceTypeID = optionalID(in.PieceTypeID)
	m.FormatID = optionalID(in.FormatID)
	m.Premium = in.Premium
	m.Active = in.Active
}

// stage uploads every given file under a new key and points m at it.
// On failure the blobs uploaded so far are removed.
func (a *MaterialAdmin) stage(ctx context.Context, m *models.Material, in MaterialInput) ([]stagedBlob, error) {
	var staged []stagedBlob
	put := func(b storage.Bucket, u *Upload) (string, error) {
		key := storage.NewObjectKey(u.Filename)
		if err := b.Put(ctx, key, u.Body, u.ContentType); err != nil {
			a.discard(ctx, staged)
			return "", fmt.Errorf("%w: upload %s: %v", ErrStorage, u.Filename, err)
		}
		staged = append(staged, stagedBlob{b, key})
		return key, nil
	}

	if in.File != nil {
		key, err := put(a.files, in.File)
		if err != nil {
			return nil, err
		}
		m.FileKey = key
	}
	if in.TrimmedFile != nil {
		key, err := put(a.files, in.TrimmedFile)
		if err != nil {
			return nil, err
		}
		m.TrimmedFileKey = key
	}
	if in.Preview != nil {
		key, err := put(a.previews, in.Preview)
		if err != nil {
			return nil, err
		}
		m.PreviewKey = key
		m.PreviewURL = a.previews.PublicURL(key)
	}
	return staged, nil
}

// discard deletes blobs best effort.
func (a *MaterialAdmin) discard(ctx context.Context, blobs []stagedBlob) {
	for _, b := range blobs {
		if err := b.bucket.Delete(ctx, b.key); err != nil {
			a.log.Error().Err(err).Str("bucket", b.bucket.Name()).Str("key", b.key).Msg("blob cleanup failed")
		}
	}
}

func (a *MaterialAdmin) index(ctx context.Context, m *models.Material) {
	if err := a.indexer.IndexMaterial(ctx, m); err != nil {
		a.log.Warn().Err(err).Uint("material_id", m.ID).Msg("search indexing failed")
	}
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
