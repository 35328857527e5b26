package services

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/cache"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/search"
)

const referenceDataTTL = 10 * time.Minute

// MaterialFilter narrows the catalog. Zero values are ignored.
type MaterialFilter struct {
	CategoryID  uint
	PieceTypeID uint
	FormatID    uint
	Search      string
}

// Empty reports whether no filter is set.
func (f MaterialFilter) Empty() bool {
	return f.CategoryID == 0 && f.PieceTypeID == 0 && f.FormatID == 0 && strings.TrimSpace(f.Search) == ""
}

// ParseFilter reads the catalog query string. Bad ids count as absent.
func ParseFilter(q url.Values) MaterialFilter {
	return MaterialFilter{
		CategoryID:  parseID(q.Get("categoria")),
		PieceTypeID: parseID(q.Get("tipo")),
		FormatID:    parseID(q.Get("formato")),
		Search:      strings.TrimSpace(q.Get("busca")),
	}
}

func parseID(s string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// ReferenceData holds the filter options of the catalog.
type ReferenceData struct {
	Categories []models.Category  `json:"categories"`
	PieceTypes []models.PieceType `json:"piece_types"`
	Formats    []models.Format    `json:"formats"`
}

// CatalogService reads the material catalog.
type CatalogService struct {
	db       *gorm.DB
	cache    *cache.RedisCache
	searcher search.Searcher
	log      zerolog.Logger
}

// NewCatalogService builds the service. A nil cache disables caching.
func NewCatalogService(db *gorm.DB, c *cache.RedisCache, log zerolog.Logger) *CatalogService {
	if c == nil {
		c = cache.Disabled()
	}
	return &CatalogService{db: db, cache: c, log: log}
}

// SetSearcher makes ListMaterials answer the text filter from the search
// index. The SQL title match stays as the fallback when the index fails.
func (s *CatalogService) SetSearcher(searcher search.Searcher) {
	s.searcher = searcher
}

// ListMaterials returns active materials matching f, newest first.
func (s *CatalogService) ListMaterials(ctx context.Context, f MaterialFilter) ([]models.Material, error) {
	q := s.db.WithContext(ctx).
		Preload("Category").Preload("PieceType").Preload("Format").Preload("Theme").
		Where("active = ?", true)
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.PieceTypeID != 0 {
		q = q.Where("piece_type_id = ?", f.PieceTypeID)
	}
	if f.FormatID != 0 {
		q = q.Where("format_id = ?", f.FormatID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		ids, ok := s.searchIDs(ctx, term)
		switch {
		case ok && len(ids) == 0:
			return []models.Material{}, nil
		case ok:
			q = q.Where("id IN ?", ids)
		default:
			q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(term)+"%")
		}
	}

	var list []models.Material
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, persistence("list materials", err)
	}
	return list, nil
}

func (s *CatalogService) searchIDs(ctx context.Context, term string) ([]uint, bool) {
	if s.searcher == nil {
		return nil, false
	}
	ids, err := s.searcher.SearchMaterialIDs(ctx, term)
	if err != nil {
		s.log.Warn().Err(err).Str("term", term).Msg("material search failed, using SQL match")
		return nil, false
	}
	return ids, true
}

// ReferenceData loads categories, piece types and formats concurrently.
// Results are cached when Redis is enabled.
func (s *CatalogService) ReferenceData(ctx context.Context) (ReferenceData, error) {
	var ref ReferenceData
	err := s.cache.Get(ctx, cache.KeyReferenceData, &ref)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, cache.ErrDisabled) && !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Msg("reference data cache read failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Where("active = ?", true).Order("name").Find(&ref.Categories).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("name").Find(&ref.PieceTypes).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("name").Find(&ref.Formats).Error
	})
	if err := g.Wait(); err != nil {
		return ReferenceData{}, persistence("load reference data", err)
	}

	if err := s.cache.Set(ctx, cache.KeyReferenceData, ref, referenceDataTTL); err != nil {
		s.log.Warn().Err(err).Msg("reference data cache write failed")
	}
	return ref, nil
}

// Themes returns the active themes ordered by name.
func (s *CatalogService) Themes(ctx context.Context) ([]models.Theme, error) {
	var list []models.Theme
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&list).Error; err != nil {
		return nil, persistence("list themes", err)
	}
	return list, nil
}

// InvalidateReferenceData drops the cached filter options.
func (s *CatalogService) InvalidateReferenceData(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.KeyReferenceData); err != nil {
		s.log.Warn().Err(err).Msg("reference data cache invalidation failed")
	}
}
