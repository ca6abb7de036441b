// Package httpapi exposes the REST surface: public catalog and order routes
// for terminals, and an admin surface guarded by role checks.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	app "github.com/paintcoffee/pos-backend/internal/app"
	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/metrics"
	"github.com/paintcoffee/pos-backend/internal/app/services/catalog"
	"github.com/paintcoffee/pos-backend/internal/app/services/invoices"
	settingssvc "github.com/paintcoffee/pos-backend/internal/app/services/settings"
	"github.com/paintcoffee/pos-backend/internal/app/services/users"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app    *app.Application
	tokens *auth.TokenManager
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, tokens *auth.TokenManager) http.Handler {
	h := &handler{app: application, tokens: tokens}
	logins := newLoginLimiter(10)

	r := chi.NewRouter()
	r.Use(cors)
	r.Use(h.identity)

	r.Get("/api/health", h.health)
	r.Get("/api/debug", h.debug)
	r.With(logins.middleware).Post("/api/login", h.login)

	r.Get("/api/menu", h.listMenu)
	r.Get("/api/menu/category/{category}", h.listMenuByCategory)
	r.Get("/api/menu/{id}", h.getMenuItem)
	r.Get("/api/categories", h.listCategoryNames)
	r.Get("/api/settings", h.getPublicSettings)

	r.Route("/api/invoices", func(r chi.Router) {
		r.Post("/", h.createInvoice)
		r.Get("/", h.listInvoices)
		r.Get("/{ref}", h.getInvoice)
		r.Put("/{ref}", h.updateInvoice)
		r.Delete("/{ref}", h.deleteInvoice)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(logins.middleware).Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Get("/menu", h.adminListMenu)
		r.Post("/menu", h.createMenuItem)
		r.Get("/menu/{id}", h.adminGetMenuItem)
		r.Put("/menu/{id}", h.updateMenuItem)
		r.Delete("/menu/{id}", h.deleteMenuItem)

		r.Get("/categories", h.listCategories)
		r.Post("/categories", h.createCategory)
		r.Delete("/categories/{id}", h.deleteCategory)

		r.Get("/users", h.listUsers)
		r.Post("/users", h.createUser)
		r.Get("/users/{id}", h.getUser)
		r.Put("/users/{id}", h.updateUser)
		r.Delete("/users/{id}", h.deleteUser)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.updateSettings)

		r.Get("/stats", h.stats)
		r.Get("/dashboard", h.dashboard)
		r.Get("/orders/recent", h.recentOrders)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return metrics.InstrumentHandler(r)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		PIN      string `json:"pin"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.Login(r.Context(), payload.Username, payload.PIN)
	if err != nil {
		metrics.RecordLoginAttempt(false)
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	metrics.RecordLoginAttempt(true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

// --- menu --------------------------------------------------------------------

func (h *handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.ListMenu(r.Context(), true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) adminListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.ListMenu(r.Context(), false)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) listMenuByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.ListMenuByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// getMenuItem serves the public surface, so it only resolves active items.
func (h *handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.app.Catalog.GetActiveMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) adminGetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.app.Catalog.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var payload menuItemPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.app.Catalog.CreateMenuItem(r.Context(), payload.MenuItemInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var payload menuItemPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.app.Catalog.UpdateMenuItem(r.Context(), chi.URLParam(r, "id"), payload.MenuItemInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Catalog.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- categories --------------------------------------------------------------

func (h *handler) listCategoryNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.app.Catalog.CategoryNames(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.app.Catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cat, err := h.app.Catalog.CreateCategory(r.Context(), payload.CategoryInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (h *handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- invoices ----------------------------------------------------------------

func (h *handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var payload invoicePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	inv, err := h.app.Invoices.Create(r.Context(), payload.CreateInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Invoices.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.app.Invoices.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var payload invoiceUpdatePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	inv, err := h.app.Invoices.Update(r.Context(), chi.URLParam(r, "ref"), payload.UpdateInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	effect, err := h.app.Invoices.Delete(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(effect)})
}

// --- reports -----------------------------------------------------------------

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Reports.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.app.Reports.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *handler) recentOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent, err := h.app.Reports.RecentOrders(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

// --- users -------------------------------------------------------------------

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Users.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload userCreatePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.Create(r.Context(), payload.CreateInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var payload userUpdatePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Users.Update(r.Context(), chi.URLParam(r, "id"), payload.UpdateInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- settings ----------------------------------------------------------------

// getPublicSettings serves terminals; the scheduled rate change stays
// internal until it activates.
func (h *handler) getPublicSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.app.Settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	current.PendingExchangeRate = nil
	current.RateEffectiveAt = nil
	writeJSON(w, http.StatusOK, current)
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.app.Settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Settings.Update(r.Context(), payload.UpdateInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- payloads ----------------------------------------------------------------

// The legacy role marker can arrive inside any JSON body as a user object, so
// the payload wrappers accept it alongside the actual input fields.
type legacyUserMarker struct {
	User *struct {
		Role string `json:"role"`
	} `json:"user"`
}

type menuItemPayload struct {
	catalog.MenuItemInput
	legacyUserMarker
}

type categoryPayload struct {
	catalog.CategoryInput
	legacyUserMarker
}

type invoicePayload struct {
	invoices.CreateInput
	legacyUserMarker
}

type invoiceUpdatePayload struct {
	invoices.UpdateInput
	legacyUserMarker
}

type userCreatePayload struct {
	users.CreateInput
	legacyUserMarker
}

type userUpdatePayload struct {
	users.UpdateInput
	legacyUserMarker
}

type settingsPayload struct {
	settingssvc.UpdateInput
	legacyUserMarker
}

// --- response helpers --------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, apperr.StatusFor(err), err)
}
