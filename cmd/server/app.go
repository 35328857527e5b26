package main

import (
	"net/http"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/i18n"
	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/cache"
	"github.com/diewo77/festakit/internal/config"
	"github.com/diewo77/festakit/internal/handlers"
	"github.com/diewo77/festakit/internal/logging"
	"github.com/diewo77/festakit/internal/policy"
	"github.com/diewo77/festakit/internal/search"
	"github.com/diewo77/festakit/internal/services"
	"github.com/diewo77/festakit/internal/storage"
	"github.com/diewo77/festakit/internal/tracing"
	"github.com/diewo77/festakit/view"
)

// Deps are the infrastructure clients built by the serve command.
type Deps struct {
	Cache    *cache.RedisCache
	Indexer  search.Indexer
	Tracer   *tracing.Tracer
	Files    storage.Bucket
	Previews storage.Bucket
	Signer   *storage.Signer
	Mailer   services.Mailer
}

// App is the main application handler that sets up all routes.
type App struct {
	cfg     config.Config
	db      *gorm.DB
	log     zerolog.Logger
	deps    Deps
	mux     *http.ServeMux
	handler http.Handler

	gate     *policy.AuthGate
	access   *policy.SubscriptionGate
	accounts *services.AccountService
	catalog  *services.CatalogService
	subs     *services.SubscriptionService
}

// NewApp wires services, handlers and middleware.
func NewApp(cfg config.Config, db *gorm.DB, deps Deps, log zerolog.Logger) *App {
	if deps.Cache == nil {
		deps.Cache = cache.Disabled()
	}
	if deps.Indexer == nil {
		deps.Indexer = search.Noop{}
	}
	if deps.Mailer == nil {
		deps.Mailer = services.LogMailer{Log: log}
	}

	a := &App{
		cfg:  cfg,
		db:   db,
		log:  log,
		deps: deps,
		mux:  http.NewServeMux(),
		gate: policy.NewAppGate(db),
	}
	a.accounts = services.NewAccountService(db, deps.Mailer, cfg.App.BaseURL, cfg.App.AdminEmail, log)
	a.catalog = services.NewCatalogService(db, deps.Cache, log)
	if s, ok := deps.Indexer.(search.Searcher); ok {
		a.catalog.SetSearcher(s)
	}
	a.subs = services.NewSubscriptionService(db)
	a.access = policy.NewSubscriptionGate(a.subs, a.gate)

	auth.SetSecret(cfg.App.SessionSecret)
	auth.SetUserVerifier(a.accounts.Exists)

	// Templates only see resolver callbacks, never the gate itself.
	view.SetCanResolver(func(r *http.Request, resource, action string) bool {
		return a.gate.HasCapability(r.Context(), resource, access.Action(action))
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return a.gate.IsAdmin(r.Context())
	})

	a.setupRoutes()

	var h http.Handler = a.mux
	h = withLanguage(h)
	h = auth.Middleware(h)
	h = deps.Tracer.Middleware(h)
	h = logging.Recover(log)(h)
	h = logging.Requests(log)(h)
	a.handler = h
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Subscriptions and Accounts feed the background jobs.
func (a *App) Subscriptions() *services.SubscriptionService { return a.subs }
func (a *App) Accounts() *services.AccountService           { return a.accounts }

func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requirePermission keeps the capability check behind the login check.
func (a *App) requirePermission(resourceType string, action access.Action, next http.Handler) http.Handler {
	return a.requireAuth(a.gate.RequireCapability(resourceType, action)(next))
}

// requirePaid adds the trial/subscription check.
func (a *App) requirePaid(resourceType string, action access.Action, next http.Handler) http.Handler {
	return a.requirePermission(resourceType, action, a.access.Require(next))
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	db := a.db
	ah := handlers.NewAuthHandler(a.accounts)

	downloads := services.NewDownloadService(db, a.deps.Files, a.log)
	downloads.SetURLTTL(a.cfg.Storage.SignedURLTTL)
	mh := handlers.NewMaterialHandler(a.catalog, downloads, a.access)

	profiles := services.NewProfileService(db)
	kh := handlers.NewCalculatorHandler(services.NewKitService(db), a.gate)
	ch := handlers.NewContractHandler(services.NewContractService(db), profiles, a.gate, a.cfg.App.BaseURL)
	sh := handlers.NewSigningHandler(services.NewSignatureService(db))
	st := handlers.NewSettingsHandler(profiles, a.gate)

	admin := handlers.NewAdminHandler(db,
		services.NewMaterialAdmin(db, a.deps.Files, a.deps.Previews, a.deps.Indexer, a.log),
		a.catalog,
		storage.ParseMaxBytes(a.cfg.Storage.MaxUploadMB),
	)
	health := handlers.NewHealthHandler(db, map[string]handlers.Pinger{"redis": a.deps.Cache})

	// Public
	a.mux.HandleFunc("GET /", handlers.Home)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /cadastro", ah.Signup)
	a.mux.HandleFunc("POST /cadastro", ah.Signup)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /recuperar-senha", ah.ForgotPassword)
	a.mux.HandleFunc("POST /recuperar-senha", ah.ForgotPassword)
	a.mux.HandleFunc("GET /atualizar-senha", ah.ResetPassword)
	a.mux.HandleFunc("POST /atualizar-senha", ah.ResetPassword)
	a.mux.HandleFunc("GET /assinar/{token}", sh.Show)
	a.mux.HandleFunc("POST /assinar/{token}", sh.Submit)

	a.mux.Handle("GET /storage/{bucket}/{key...}", storage.NewHandler(a.deps.Signer, a.log, a.deps.Files, a.deps.Previews))
	staticDir := a.cfg.App.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	a.mux.HandleFunc("GET /health", health.Live)
	a.mux.HandleFunc("GET /healthz", health.Ready)

	// Catalog: listing is open to every operator, the gate decides downloads.
	a.mux.Handle("GET /materiais",
		a.requirePermission(access.ResourceMaterial, access.ActionList, http.HandlerFunc(mh.List)))
	a.mux.Handle("POST /materiais/{id}/download",
		a.requirePermission(access.ResourceMaterial, access.ActionDownload, http.HandlerFunc(mh.Download)))

	// Calculator and kits
	a.mux.Handle("GET /calculadora",
		a.requirePaid(access.ResourceCalculator, access.ActionUse, http.HandlerFunc(kh.Show)))
	a.mux.Handle("POST /calculadora",
		a.requirePaid(access.ResourceCalculator, access.ActionUse, http.HandlerFunc(kh.Calculate)))
	a.mux.Handle("POST /calculadora/kits",
		a.requirePaid(access.ResourceKit, access.ActionCreate, http.HandlerFunc(kh.SaveKit)))
	a.mux.Handle("POST /calculadora/kits/{id}/excluir",
		a.requirePaid(access.ResourceKit, access.ActionDelete, http.HandlerFunc(kh.DeleteKit)))

	// Contracts
	a.mux.Handle("GET /contratos",
		a.requirePaid(access.ResourceContract, access.ActionList, http.HandlerFunc(ch.List)))
	a.mux.Handle("GET /contratos/novo",
		a.requirePaid(access.ResourceContract, access.ActionCreate, http.HandlerFunc(ch.New)))
	a.mux.Handle("POST /contratos",
		a.requirePaid(access.ResourceContract, access.ActionCreate, http.HandlerFunc(ch.Create)))
	a.mux.Handle("GET /contratos/{id}",
		a.requirePaid(access.ResourceContract, access.ActionView, http.HandlerFunc(ch.View)))
	a.mux.Handle("GET /contratos/{id}/imprimir",
		a.requirePaid(access.ResourceContract, access.ActionView, http.HandlerFunc(ch.Print)))
	a.mux.Handle("POST /contratos/{id}/excluir",
		a.requirePaid(access.ResourceContract, access.ActionDelete, http.HandlerFunc(ch.Delete)))

	// Store profile
	a.mux.Handle("GET /configuracoes",
		a.requirePermission(access.ResourceStoreProfile, access.ActionView, http.HandlerFunc(st.Edit)))
	a.mux.Handle("POST /configuracoes",
		a.requirePermission(access.ResourceStoreProfile, access.ActionUpdate, http.HandlerFunc(st.Update)))

	// Admin
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return a.requirePermission(access.ResourceMaterial, access.ActionCreate, h)
	}
	a.mux.Handle("GET /admin", adminOnly(admin.Dashboard))
	a.mux.Handle("GET /admin/materiais", adminOnly(admin.Materials))
	a.mux.Handle("GET /admin/materiais/novo", adminOnly(admin.New))
	a.mux.Handle("POST /admin/materiais", adminOnly(admin.Create))
	a.mux.Handle("GET /admin/materiais/{id}", adminOnly(admin.Edit))
	a.mux.Handle("POST /admin/materiais/{id}", adminOnly(admin.Update))
	a.mux.Handle("POST /admin/materiais/{id}/excluir", adminOnly(admin.Delete))
}

// withLanguage picks the UI language from ?lang, the lang cookie or
// Accept-Language, in that order.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
