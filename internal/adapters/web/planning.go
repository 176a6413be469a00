package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"supply-agent/internal/core"
)

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Suggestions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Alerts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// acquisitionPlan runs one plan cycle. A failed delegate call is not an HTTP error:
// the result carries the outcome and error text alongside whatever items were produced.
func (h *Handler) acquisitionPlan(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AcquisitionPlan(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) stockReview(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.StockReview(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Analyze(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// exportWorkbook buffers the workbook so a failure can still be reported as JSON.
func (h *Handler) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportWorkbook(r.Context(), &buf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	name := "stock-" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// executePlan runs the supplied plan lines, or a full perceive, plan and execute cycle
// when the body is empty.
func (h *Handler) executePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []core.ActionPlanItem `json:"items"`
	}
	present, ok := decodeOptionalJSON(w, r, &req)
	if !ok {
		return
	}
	if present {
		if err := core.ValidatePlan(req.Items); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, h.svc.ExecutePlan(r.Context(), req.Items))
		return
	}

	res, err := h.svc.RunCycle(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
