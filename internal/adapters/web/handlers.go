package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
	"supply-agent/internal/metrics"
)

const (
	maxBodyBytes   = 1 << 20  // 1 MB
	maxImportBytes = 32 << 20 // stock extracts run to tens of thousands of rows
)

// Handler holds the ApplicationService and auth settings.
type Handler struct {
	svc       app.ApplicationService
	log       logrus.FieldLogger
	jwtSecret string
}

// Options configures NewHandler. Metrics may be nil.
type Options struct {
	Logger         logrus.FieldLogger
	Metrics        *metrics.Registry
	AllowedOrigins []string
	JWTSecret      string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Handler{
		svc:       svc,
		log:       log.WithField("module", "web"),
		jwtSecret: opts.JWTSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log, opts.Metrics))
	r.Use(Recoverer(h.log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health and metrics (public) ──────────────────────────────────────────
	r.Get("/api/health", h.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(maxBodyBytes))

		// ── Auth ─────────────────────────────────────────────────────────────
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)

		// ── Products (stock records) ─────────────────────────────────────────
		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)
		r.Get("/api/products/{code}", h.getProduct)
		r.Put("/api/products/{code}", h.upsertProduct)
		r.Delete("/api/products/{code}", h.deleteProduct)

		// ── Engine (read-only) ───────────────────────────────────────────────
		r.Get("/api/suggestions", h.suggestions)
		r.Get("/api/alerts", h.alerts)
		r.Get("/api/review", h.stockReview)
		r.Get("/api/analysis", h.analysis)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(maxBodyBytes))

			r.Get("/api/auth/me", h.me)

			// Plan cycles may call the paid reasoning service.
			r.Get("/api/plan", h.acquisitionPlan)
			r.Get("/api/export.xlsx", h.exportWorkbook)

			r.Get("/api/sales", h.listSales)
			r.Post("/api/sales", h.createSale)
			r.Get("/api/sales/{id}", h.getSale)
			r.Patch("/api/sales/{id}", h.updateSale)
			r.Delete("/api/sales/{id}", h.deleteSale)
		})

		// Plan execution and account management need a privileged role.
		r.Group(func(r chi.Router) {
			r.Use(RequirePlanRole)

			r.With(RequestBodyLimit(maxImportBytes)).Post("/api/products/import", h.importCSV)

			r.Group(func(r chi.Router) {
				r.Use(RequestBodyLimit(maxBodyBytes))
				r.Post("/api/plan/execute", h.executePlan)
				r.Get("/api/users", h.listUsers)
				r.Post("/api/users", h.createUser)
				r.Get("/api/users/{id}", h.getUser)
				r.Delete("/api/users/{id}", h.deleteUser)
			})
		})
	})

	return r
}

// health reports store, strategy and reasoning delegate state.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Health(r.Context()))
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty. It reports whether a
// body was present.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) (present, ok bool) {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, io.EOF):
		return false, true
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
		return false, false
	}
	writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	return false, false
}

// ── Products ──────────────────────────────────────────────────────────────────

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetProduct(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var rec core.StockRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	created, err := h.svc.CreateProduct(r.Context(), rec)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (h *Handler) upsertProduct(w http.ResponseWriter, r *http.Request) {
	var rec core.StockRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	saved, err := h.svc.UpsertProduct(r.Context(), chi.URLParam(r, "code"), rec)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, saved)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ImportCSV(r.Context(), r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
