package ticket_api

import (
	"fmt"
	"net/http"

	"ms-concerts/internal/logscan"
	"ms-concerts/internal/utils"
)

// ExecutionReport counts audited successes and failures in the service's
// own log files between start_date and end_date (dd_mm_yyyy, inclusive).
func (h *Handler) ExecutionReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := logscan.ParseDate(q.Get("start_date"))
	if err != nil {
		h.writeError(w, r, invalid("start_date must use the %s format", "dd_mm_yyyy"))
		return
	}
	end, err := logscan.ParseDate(q.Get("end_date"))
	if err != nil {
		h.writeError(w, r, invalid("end_date must use the %s format", "dd_mm_yyyy"))
		return
	}

	dir := h.Logger.Dir()
	if dir == "" {
		h.writeError(w, r, fmt.Errorf("no log directory configured"))
		return
	}

	counts, err := logscan.Scan(dir, start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, counts)
}
