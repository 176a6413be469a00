package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
)

// idParam parses the {id} URL parameter, writing a 400 when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// ── Users ─────────────────────────────────────────────────────────────────────

type createUserBody struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate string    `json:"birth_date"` // YYYY-MM-DD, optional
	TaxID     string    `json:"tax_id"`
	Role      core.Role `json:"role"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req := app.CreateUserRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		TaxID:     body.TaxID,
		Role:      body.Role,
		Email:     body.Email,
		Password:  body.Password,
	}
	if body.BirthDate != "" {
		d, err := time.Parse("2006-01-02", body.BirthDate)
		if err != nil {
			writeError(w, r, "birth_date must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.BirthDate = &d
	}
	if claims := authFromContext(r.Context()); claims != nil {
		creator := claims.UserID
		req.CreatedBy = &creator
	}

	u, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, u)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if claims := authFromContext(r.Context()); claims != nil && claims.UserID == id {
		writeError(w, r, "cannot delete your own account", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var in core.SaleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.SaleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
