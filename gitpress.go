// Package gitpress is a content-management admin panel for static sites
// whose content lives as files in a remote source-control repository.
// Edits are rendered to HTML and published back to the repository as
// atomic multi-file commits through its hosting API; the admin server
// itself never serves public traffic.
//
// It is built with Go, Echo, and templ. Operators provide their own templ
// components via the ViewFuncs struct or fall back to the built-in admin
// views; the published pages use the site's own base template, stored in
// the repository.
package gitpress

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/render"
	"github.com/gitpress-io/gitpress/store"
	"github.com/gitpress-io/gitpress/views"
)

// ViewFuncs holds the templ components the admin panel renders. Any nil
// field falls back to the built-in views, so embedders can restyle a
// single screen without owning all of them.
type ViewFuncs struct {
	Login         func(showError bool, csrfToken string) templ.Component
	Dashboard     func(types content.Types, message string) templ.Component
	ContentList   func(typeData content.ContentType, records []publish.Record, draftIDs []string, message, csrfToken string) templ.Component
	ItemForm      func(typeData content.ContentType, item *content.ContentItem, op string, isNew bool, langs []string, fieldErrors map[string]string, csrfToken string) templ.Component
	DeleteConfirm func(typeData content.ContentType, item *content.ContentItem, csrfToken string) templ.Component
	Rebuild       func(types content.Types, csrfToken string) templ.Component
	Settings      func(settings content.Settings, types content.Types, fieldErrors map[string]string, message, csrfToken string) templ.Component
	TypeList      func(types content.Types, message, csrfToken string) templ.Component
	TypeForm      func(typeData content.ContentType, isNew bool, fieldsJSON string, fieldErrors map[string]string, csrfToken string) templ.Component
	MenuEditor    func(languages []string, menus map[string][]render.MenuItem, message, csrfToken string) templ.Component
	NotFound      func() templ.Component
	ServerError   func() templ.Component
}

func (v *ViewFuncs) applyDefaults() {
	if v.Login == nil {
		v.Login = views.Login
	}
	if v.Dashboard == nil {
		v.Dashboard = views.Dashboard
	}
	if v.ContentList == nil {
		v.ContentList = views.ContentList
	}
	if v.ItemForm == nil {
		v.ItemForm = views.ItemForm
	}
	if v.DeleteConfirm == nil {
		v.DeleteConfirm = views.DeleteConfirm
	}
	if v.Rebuild == nil {
		v.Rebuild = views.Rebuild
	}
	if v.Settings == nil {
		v.Settings = views.Settings
	}
	if v.TypeList == nil {
		v.TypeList = views.TypeList
	}
	if v.TypeForm == nil {
		v.TypeForm = views.TypeForm
	}
	if v.MenuEditor == nil {
		v.MenuEditor = views.MenuEditor
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App is the central gitpress application. It wires together the store
// backend, drafts, index cache, renderer, handlers, and views.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Backend  store.Backend
	Drafts   *DraftStore
	Cache    *IndexCache
	Types    content.Types
	Settings content.Settings
	Renderer *render.Renderer
	Views    ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new gitpress App with the given configuration and views.
func New(cfg SiteConfig, viewFuncs ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	viewFuncs.applyDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     viewFuncs,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start resolves the backend, loads the site's repo-resident configuration,
// initializes drafts and caches, and starts the admin server.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("gitpress: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("gitpress: SessionSecret is required")
	}

	if a.Backend == nil {
		backend, err := newBackend(a.Config)
		if err != nil {
			return err
		}
		a.Backend = backend
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings, err := content.LoadSettings(ctx, a.Backend)
	if err == content.ErrNoSettings {
		log.Printf("gitpress: no site settings in repository, using defaults (run `gitpress new` to scaffold a site)")
		settings = content.Settings{}
	} else if err != nil {
		return fmt.Errorf("gitpress: load site settings: %w", err)
	}
	settings.ApplyDefaults()
	a.Settings = settings

	types, err := content.LoadTypes(ctx, a.Backend)
	if err != nil {
		return fmt.Errorf("gitpress: load content types: %w", err)
	}
	a.Types = types

	drafts, err := NewDraftStore(a.Config.DraftDBPath)
	if err != nil {
		return fmt.Errorf("gitpress: init draft store: %w", err)
	}
	a.Drafts = drafts

	a.Cache = NewIndexCache(a.Backend, a.Config.IndexCacheTTL, a.Config.IndexRetryAttempts, a.Config.IndexRetryDelay)
	a.Renderer = render.New(a.Backend, a.Settings)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded admin assets, falling through to the operator's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/admin.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/admin.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)

	e.GET("/healthz", a.handleHealth)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	e.GET("/admin/content/:type/", a.handleContentList)
	e.GET("/admin/content/:type/new/", a.handleItemNew)
	e.GET("/admin/content/:type/:id/", a.handleItemForm)
	e.POST("/admin/content/:type/:id/draft/", a.handleDraftSave)
	e.POST("/admin/content/:type/:id/discard/", a.handleDraftDiscard)
	e.POST("/admin/content/:type/:id/save/", a.handleItemSave)
	e.GET("/admin/content/:type/:id/delete/", a.handleItemDeleteConfirm)
	e.POST("/admin/content/:type/:id/delete/", a.handleItemDelete)
	e.POST("/admin/content/:type/:id/attachment/:field/", a.handleAttachmentUpload)

	e.GET("/admin/settings/", a.handleSettingsForm)
	e.POST("/admin/settings/", a.handleSettingsSave)
	e.GET("/admin/types/", a.handleTypeList)
	e.GET("/admin/types/:name/", a.handleTypeForm)
	e.POST("/admin/types/:name/save/", a.handleTypeSave)
	e.POST("/admin/types/:name/delete/", a.handleTypeDelete)
	e.GET("/admin/menu/", a.handleMenuForm)
	e.POST("/admin/menu/", a.handleMenuSave)

	e.GET("/admin/rebuild/", a.handleRebuildForm)
	e.POST("/admin/rebuild/", a.handleRebuild)
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Backend.Ping(c.Request().Context()); err != nil {
		return c.String(http.StatusServiceUnavailable, err.Error())
	}
	return c.String(http.StatusOK, "ok")
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Drafts != nil {
		return a.Drafts.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("gitpress: required environment variable %s is not set", key)
	}
	return v
}
