package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/internal/db"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/policy"
)

const testPNG = "data:image/png;base64,iVBORw0KGgo="

var nopLog = zerolog.New(io.Discard)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return d
}

// createUser creates an operator holding the subscriber role.
func createUser(t *testing.T, d *gorm.DB, email string) models.User {
	t.Helper()
	return createUserWithRole(t, d, email, models.RoleSubscriber)
}

func createUserWithRole(t *testing.T, d *gorm.DB, email, roleName string) models.User {
	t.Helper()
	if err := db.SeedRoles(d); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	var role models.Role
	if err := d.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	u := models.User{Email: email, Password: "x", RoleID: &role.ID}
	if err := d.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newGate(d *gorm.DB) *policy.AuthGate {
	return policy.NewAppGate(d)
}

type staticAccess bool

func (a staticAccess) Allowed(context.Context) bool { return bool(a) }

// formRequest builds a urlencoded POST, logged in as userID when non-zero.
func formRequest(path string, userID uint, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return asUser(req, userID)
}

func getRequest(path string, userID uint) *http.Request {
	return asUser(httptest.NewRequest(http.MethodGet, path, nil), userID)
}

func asUser(req *http.Request, userID uint) *http.Request {
	if userID == 0 {
		return req
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
