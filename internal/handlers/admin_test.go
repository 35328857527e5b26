package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
	"github.com/diewo77/festakit/internal/storage"
)

type adminFixture struct {
	db       *gorm.DB
	files    *storage.MemoryBucket
	previews *storage.MemoryBucket
	handler  *AdminHandler
	admin    models.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	d := setupTestDB(t)
	f := &adminFixture{
		db:       d,
		files:    storage.NewMemoryBucket("materials", false),
		previews: storage.NewMemoryBucket("previews", true),
		admin:    createUser(t, d, "admin@festa.test"),
	}
	f.handler = NewAdminHandler(d,
		services.NewMaterialAdmin(d, f.files, f.previews, nil, nopLog),
		services.NewCatalogService(d, nil, nopLog),
		0,
	)
	return f
}

// multipartRequest builds a POST with the given fields and files (field -> filename:content).
func multipartRequest(t *testing.T, path string, userID uint, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, file := range files {
		fw, err := mw.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return asUser(req, userID)
}

func TestAdminCreateMaterial(t *testing.T) {
	f := newAdminFixture(t)

	req := multipartRequest(t, "/admin/materiais", f.admin.ID,
		map[string]string{"titulo": "Topo de bolo Safari", "ativo": "on", "premium": "on"},
		map[string][2]string{
			"arquivo":             {"topo safari.pdf", "%PDF-full"},
			"arquivo_sem_sangria": {"topo-trim.pdf", "%PDF-trim"},
			"preview":             {"thumb.png", "png"},
		})
	w := httptest.NewRecorder()
	f.handler.Create(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/admin/materiais", w.Header().Get("Location"))

	var m models.Material
	require.NoError(t, f.db.First(&m).Error)
	assert.Equal(t, "Topo de bolo Safari", m.Title)
	assert.True(t, m.Active)
	assert.True(t, m.Premium)
	assert.True(t, strings.HasSuffix(m.FileKey, "-topo_safari.pdf"))
	assert.True(t, m.HasTrimmed())
	assert.Equal(t, "memory://previews/"+m.PreviewKey, m.PreviewURL)
	assert.ElementsMatch(t, []string{m.FileKey, m.TrimmedFileKey}, f.files.Keys())
	assert.Equal(t, []string{m.PreviewKey}, f.previews.Keys())
}

func TestAdminCreateMaterial_RequiresFile(t *testing.T) {
	f := newAdminFixture(t)

	req := multipartRequest(t, "/admin/materiais", f.admin.ID, map[string]string{"titulo": "Sem arquivo"}, nil)
	w := httptest.NewRecorder()
	f.handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Selecione o arquivo para download.")
	assert.Contains(t, w.Body.String(), `value="Sem arquivo"`)
}

func TestAdminCreateMaterial_StorageFailureCleansUp(t *testing.T) {
	f := newAdminFixture(t)
	f.previews.FailPut = func(string) error { return errors.New("bucket offline") }

	req := multipartRequest(t, "/admin/materiais", f.admin.ID,
		map[string]string{"titulo": "Painel"},
		map[string][2]string{"arquivo": {"painel.pdf", "%PDF"}, "preview": {"p.png", "png"}})
	w := httptest.NewRecorder()
	f.handler.Create(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Erro ao enviar arquivo.")
	assert.Empty(t, f.files.Keys(), "staged blobs are removed")

	var count int64
	f.db.Model(&models.Material{}).Count(&count)
	assert.Zero(t, count)
}

func TestAdminUpdateAndDeleteMaterial(t *testing.T) {
	f := newAdminFixture(t)
	req := multipartRequest(t, "/admin/materiais", f.admin.ID,
		map[string]string{"titulo": "Convite", "ativo": "on"},
		map[string][2]string{"arquivo": {"convite.pdf", "v1"}})
	f.handler.Create(httptest.NewRecorder(), req)

	var m models.Material
	require.NoError(t, f.db.First(&m).Error)
	oldKey := m.FileKey

	req = multipartRequest(t, "/admin/materiais/"+itoa(m.ID), f.admin.ID,
		map[string]string{"titulo": "Convite Princesa", "ativo": "on"},
		map[string][2]string{"arquivo": {"convite-v2.pdf", "v2"}})
	req.SetPathValue("id", itoa(m.ID))
	w := httptest.NewRecorder()
	f.handler.Update(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	require.NoError(t, f.db.First(&m, m.ID).Error)
	assert.Equal(t, "Convite Princesa", m.Title)
	assert.NotEqual(t, oldKey, m.FileKey)
	assert.Equal(t, []string{m.FileKey}, f.files.Keys(), "replaced blob is removed")

	req = formRequest("/admin/materiais/"+itoa(m.ID)+"/excluir", f.admin.ID, nil)
	req.SetPathValue("id", itoa(m.ID))
	w = httptest.NewRecorder()
	f.handler.Delete(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	require.NoError(t, f.db.First(&m, m.ID).Error)
	assert.False(t, m.Active, "materials are hidden, not removed")
	assert.Len(t, f.files.Keys(), 1)
}

func TestAdminDashboardJSON(t *testing.T) {
	f := newAdminFixture(t)
	require.NoError(t, f.db.Create(&models.Material{Title: "A", FileKey: "a.pdf", Active: true}).Error)
	require.NoError(t, f.db.Create(&models.Material{Title: "B", FileKey: "b.pdf", Active: false}).Error)

	req := getRequest("/admin", f.admin.ID)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	f.handler.Dashboard(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"materials":1,"active_subscriptions":0,"downloads":0}`, w.Body.String())
}
