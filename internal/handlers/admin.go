package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
	"github.com/diewo77/festakit/internal/storage"
)

// AdminHandler serves the admin dashboard and the material catalog editor.
type AdminHandler struct {
	db        *gorm.DB
	materials *services.MaterialAdmin
	catalog   *services.CatalogService
	maxUpload int64
}

func NewAdminHandler(db *gorm.DB, materials *services.MaterialAdmin, catalog *services.CatalogService, maxUpload int64) *AdminHandler {
	if maxUpload <= 0 {
		maxUpload = storage.ParseMaxBytes(0)
	}
	return &AdminHandler{db: db, materials: materials, catalog: catalog, maxUpload: maxUpload}
}

// Dashboard: GET /admin
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := services.Dashboard(r.Context(), h.db, time.Now())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	render(w, r, http.StatusOK, "admin/dashboard.html", map[string]any{"Stats": stats})
}

// Materials: GET /admin/materiais, inactive rows included.
func (h *AdminHandler) Materials(w http.ResponseWriter, r *http.Request) {
	list, err := h.materials.List(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": list, "total": len(list)})
		return
	}
	render(w, r, http.StatusOK, "admin/materials.html", map[string]any{"Materials": list})
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, m *models.Material, errMsg string) {
	ref, err := h.catalog.ReferenceData(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	themes, err := h.catalog.Themes(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	render(w, r, status, "admin/material_form.html", map[string]any{
		"Material":   m,
		"IsNew":      m.ID == 0,
		"Categories": ref.Categories,
		"PieceTypes": ref.PieceTypes,
		"Formats":    ref.Formats,
		"Themes":     themes,
		"Error":      errMsg,
	})
}

// New: GET /admin/materiais/novo
func (h *AdminHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, &models.Material{Active: true}, "")
}

func formUpload(r *http.Request, field string) (*services.Upload, multipart.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if hdr.Size == 0 {
		f.Close()
		return nil, nil, nil
	}
	return &services.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        f,
	}, f, nil
}

func formID(r *http.Request, field string) uint {
	n, _ := strconv.ParseUint(r.FormValue(field), 10, 64)
	return uint(n)
}

// materialForm parses the multipart form. The returned closer releases the
// uploaded files.
func (h *AdminHandler) materialForm(w http.ResponseWriter, r *http.Request) (services.MaterialInput, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.MaterialInput{}, closeAll, err
	}

	in := services.MaterialInput{
		Title:       r.FormValue("titulo"),
		Description: r.FormValue("descricao"),
		CategoryID:  formID(r, "categoria"),
		ThemeID:     formID(r, "tema"),
		PieceTypeID: formID(r, "tipo"),
		FormatID:    formID(r, "formato"),
		Premium:     r.FormValue("premium") == "on",
		Active:      r.FormValue("ativo") == "on",
	}
	for field, dst := range map[string]**services.Upload{
		"arquivo":             &in.File,
		"arquivo_sem_sangria": &in.TrimmedFile,
		"preview":             &in.Preview,
	} {
		u, f, err := formUpload(r, field)
		if err != nil {
			return in, closeAll, err
		}
		if f != nil {
			files = append(files, f)
		}
		*dst = u
	}
	return in, closeAll, nil
}

func formMaterial(in services.MaterialInput, base *models.Material) *models.Material {
	m := &models.Material{}
	if base != nil {
		*m = *base
	}
	m.Title, m.Description = in.Title, in.Description
	m.Premium, m.Active = in.Premium, in.Active
	m.CategoryID = idPtr(in.CategoryID)
	m.ThemeID = idPtr(in.ThemeID)
	m.PieceTypeID = idPtr(in.PieceTypeID)
	m.FormatID = idPtr(in.FormatID)
	return m
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func (h *AdminHandler) saveFailed(w http.ResponseWriter, r *http.Request, m *models.Material, err error) {
	status := http.StatusBadRequest
	msg := errorMessage(err)
	switch {
	case isValidation(err):
	case errors.Is(err, services.ErrStorage):
		logError(r, err)
		status, msg = http.StatusBadGateway, t(r, "upload_failed")
	default:
		logError(r, err)
		status = http.StatusInternalServerError
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, msg, nil)
		return
	}
	h.renderForm(w, r, status, m, msg)
}

// Create: POST /admin/materiais
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, done, err := h.materialForm(w, r)
	defer done()
	if err != nil {
		httpx.JSONError(w, http.StatusRequestEntityTooLarge, t(r, "upload_failed"), nil)
		return
	}
	m, err := h.materials.Create(r.Context(), in)
	if err != nil {
		h.saveFailed(w, r, formMaterial(in, nil), err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, m)
		return
	}
	http.Redirect(w, r, "/admin/materiais", http.StatusSeeOther)
}

// Edit: GET /admin/materiais/{id}
func (h *AdminHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	m, err := h.materials.Get(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, m)
		return
	}
	h.renderForm(w, r, http.StatusOK, m, "")
}

// Update: POST /admin/materiais/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	in, done, err := h.materialForm(w, r)
	defer done()
	if err != nil {
		httpx.JSONError(w, http.StatusRequestEntityTooLarge, t(r, "upload_failed"), nil)
		return
	}
	m, err := h.materials.Update(r.Context(), id, in)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		current, _ := h.materials.Get(r.Context(), id)
		h.saveFailed(w, r, formMaterial(in, current), err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, m)
		return
	}
	http.Redirect(w, r, "/admin/materiais", http.StatusSeeOther)
}

// Delete: POST /admin/materiais/{id}/excluir hides the material.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	err := h.materials.Delete(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/admin/materiais", http.StatusSeeOther)
}
