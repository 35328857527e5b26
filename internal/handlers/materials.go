package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

const recentDownloads = 5

// MaterialHandler serves the catalog and the download gate.
type MaterialHandler struct {
	catalog   *services.CatalogService
	downloads *services.DownloadService
	access    AccessChecker
}

func NewMaterialHandler(catalog *services.CatalogService, downloads *services.DownloadService, access AccessChecker) *MaterialHandler {
	return &MaterialHandler{catalog: catalog, downloads: downloads, access: access}
}

// List: GET /materiais?categoria=&tipo=&formato=&busca=
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := services.ParseFilter(r.URL.Query())

	var (
		materials []models.Material
		ref       services.ReferenceData
		recent    []models.DownloadHistory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		materials, err = h.catalog.ListMaterials(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		ref, err = h.catalog.ReferenceData(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = h.downloads.History(gctx, currentUser(r), recentDownloads)
		return err
	})
	if err := g.Wait(); err != nil {
		serverError(w, r, err)
		return
	}
	hasAccess := h.access.Allowed(ctx)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": materials, "total": len(materials), "has_access": hasAccess, "recent_downloads": recent})
		return
	}

	data := map[string]any{
		"Materials":  materials,
		"Filter":     filter,
		"Categories": ref.Categories,
		"PieceTypes": ref.PieceTypes,
		"Formats":    ref.Formats,
		"HasAccess":  hasAccess,
		"Recent":     recent,
	}
	switch r.URL.Query().Get("erro") {
	case "download":
		data["Error"] = t(r, "download_failed")
	case "acesso":
		data["Error"] = t(r, "subscription_needed")
	}
	render(w, r, http.StatusOK, "materials.html", data)
}

// Download: POST /materiais/{id}/download redirects to a short-lived signed URL.
func (h *MaterialHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	ctx := r.Context()
	variant := services.ParseDownloadVariant(r.FormValue("variante"))
	ticket, err := h.downloads.RequestDownload(ctx, currentUser(r), id, h.access.Allowed(ctx), variant)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAccessDenied):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusPaymentRequired, "subscription_required", nil)
			return
		}
		http.Redirect(w, r, "/materiais?erro=acesso", http.StatusSeeOther)
		return
	case errors.Is(err, services.ErrNotFound):
		notFound(w, r)
		return
	default:
		logError(r, err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadGateway, t(r, "download_failed"), nil)
			return
		}
		http.Redirect(w, r, "/materiais?erro=download", http.StatusSeeOther)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"url": ticket.URL, "expires_at": ticket.ExpiresAt})
		return
	}
	http.Redirect(w, r, ticket.URL, http.StatusSeeOther)
}
