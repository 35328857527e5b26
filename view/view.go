// Package view renders the html/template pages under templates/ with a
// shared layout, partials and func map.
package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/i18n"
	"github.com/diewo77/festakit/internal/format"
	"github.com/shopspring/decimal"
)

var (
	baseDir  string
	once     sync.Once
	devMode  bool
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	// permission resolvers are set by the host app so templates can check access
	canResolver     func(*http.Request, string, string) bool
	isAdminResolver func(*http.Request) bool
)

// SetCanResolver sets the callback behind the template "can" func.
func SetCanResolver(f func(r *http.Request, resource, action string) bool) {
	canResolver = f
}

// SetIsAdminResolver sets the callback behind the template "isAdmin" func.
func SetIsAdminResolver(f func(*http.Request) bool) {
	isAdminResolver = f
}

// SetDevMode disables the template cache so edits show up on reload.
func SetDevMode(on bool) { devMode = on }

func detectBase() {
	for _, c := range []string{"templates", "../templates", "../../templates", "../../../templates"} {
		if fi, err := os.Stat(c); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// SetBaseDir overrides the template base directory.
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

// Funcs returns the func map bound to r.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			return canResolver != nil && canResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			return isAdminResolver != nil && isAdminResolver(r)
		},
		"brl": func(v any) string {
			switch n := v.(type) {
			case decimal.Decimal:
				return format.BRL(n)
			case *decimal.Decimal:
				if n == nil {
					return format.BRL(decimal.Zero)
				}
				return format.BRL(*n)
			case float64:
				return format.BRLFloat(n)
			case int:
				return format.BRL(decimal.NewFromInt(int64(n)))
			}
			return fmt.Sprint(v)
		},
		"dateBR": format.DateBR,
		"dateTimeBR": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return format.DateTimeBR(t)
			case *time.Time:
				if t != nil {
					return format.DateTimeBR(*t)
				}
			}
			return ""
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"imgURL": func(s string) template.URL {
			// Only inline PNG data URLs and http(s)/relative URLs are trusted.
			if strings.HasPrefix(s, "data:image/png;base64,") || strings.HasPrefix(s, "/") ||
				strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
				return template.URL(s)
			}
			return ""
		},
		// sameID compares an optional foreign key with an id, for <select> options.
		"sameID": func(p *uint, id uint) bool { return p != nil && *p == id },
		"mul":    func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) },
		"add":    func(a, b int) int { return a + b },
		"year":   func() int { return time.Now().Year() },
		"asset":  versionedAsset,
		// dict builds a map for passing several values to a partial.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					m[key] = values[i+1]
				}
			}
			return m
		},
	}
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	b, err := os.ReadFile(filepath.Join("static", rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

func parse(r *http.Request, name string) (*template.Template, error) {
	mainPath := filepath.Join(baseDir, name)
	content, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	funcs := Funcs(r)
	// Full documents (print view, signing page) skip the layout.
	if bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) {
		return template.New(filepath.Base(name)).Funcs(funcs).ParseFiles(mainPath)
	}
	files := []string{filepath.Join(baseDir, "layout.html"), mainPath}
	partials, _ := filepath.Glob(filepath.Join(baseDir, "partials", "*.html"))
	files = append(files, partials...)
	return template.New("layout.html").Funcs(funcs).ParseFiles(files...)
}

// Render executes the named template (relative to templates/) with data.
// Year, IsLoggedIn and Lang are injected when absent.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = time.Now().Year()
	}
	if _, ok := data["IsLoggedIn"]; !ok {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, ok := data["Lang"]; !ok {
		data["Lang"] = i18n.LangFromContext(r.Context())
	}

	// Func closures capture the request, so cached templates are cloned and rebound per render.
	var t *template.Template
	if !devMode {
		tplCache.RLock()
		cached := tplCache.m[name]
		tplCache.RUnlock()
		if cached != nil {
			clone, err := cached.Clone()
			if err != nil {
				return err
			}
			t = clone.Funcs(Funcs(r))
		}
	}
	if t == nil {
		parsed, err := parse(r, name)
		if err != nil {
			return err
		}
		if !devMode {
			tplCache.Lock()
			tplCache.m[name] = parsed
			tplCache.Unlock()
			if parsed, err = parsed.Clone(); err != nil {
				return err
			}
		}
		t = parsed
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
