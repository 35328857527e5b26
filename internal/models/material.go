package models

import "time"

// Category classifies materials for the catalog filter.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
}

// Theme is the party theme of a material (e.g. "Safari").
type Theme struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Slug          string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	CoverImageURL string    `gorm:"size:500" json:"cover_image_url,omitempty"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
}

// PieceType is the kind of printable piece (topper, label, panel).
type PieceType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
}

// Format is the file format of a material (PDF, PNG, ...).
type Format struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

// Material is a downloadable asset. Deleting a material clears Active.
type Material struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	CategoryID  *uint      `gorm:"index" json:"category_id,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	ThemeID     *uint      `gorm:"index" json:"theme_id,omitempty"`
	Theme       *Theme     `json:"theme,omitempty"`
	PieceTypeID *uint      `gorm:"index" json:"piece_type_id,omitempty"`
	PieceType   *PieceType `json:"piece_type,omitempty"`
	FormatID    *uint      `gorm:"index" json:"format_id,omitempty"`
	Format      *Format    `json:"format,omitempty"`

	// FileKey is the private object key of the full file.
	FileKey string `gorm:"size:500;not null" json:"-"`
	// TrimmedFileKey is the private object key of the variant without bleed, if any.
	TrimmedFileKey string `gorm:"size:500" json:"-"`
	// PreviewKey is the public object key of the thumbnail; PreviewURL is its permanent URL.
	PreviewKey string `gorm:"size:500" json:"-"`
	PreviewURL string `gorm:"size:500" json:"preview_url,omitempty"`

	DownloadCount int64 `gorm:"not null;default:0" json:"download_count"`
	Premium       bool  `gorm:"not null;default:false" json:"premium"`
	Active        bool  `gorm:"not null;index" json:"active"`
}

// HasTrimmed reports whether a trimmed variant was uploaded.
func (m *Material) HasTrimmed() bool {
	return m.TrimmedFileKey != ""
}

// DownloadHistory records one download click.
type DownloadHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	MaterialID   uint      `gorm:"index;not null" json:"material_id"`
	Material     *Material `json:"material,omitempty"`
	DownloadedAt time.Time `gorm:"not null" json:"downloaded_at"`
}
