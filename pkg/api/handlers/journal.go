package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"nanopubd/pkg/db"
	"nanopubd/pkg/logger"
	"nanopubd/pkg/utils"
)

// RegisterJournal registers the journal state and package endpoints.
func (h *Handlers) RegisterJournal(r *mux.Router) {
	r.HandleFunc("/journal", h.journalState).Methods(http.MethodGet)
	r.HandleFunc("/packages/{no}", h.getPackage).Methods(http.MethodGet)
}

func (h *Handlers) journalState(w http.ResponseWriter, r *http.Request) {
	j := h.DB.Journal()
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		JournalID     int64 `json:"journalId"`
		NextNanopubNo int64 `json:"nextNanopubNo"`
		PageSize      int64 `json:"pageSize"`
		CurrentPageNo int64 `json:"currentPageNo"`
	}{
		JournalID:     j.ID(),
		NextNanopubNo: j.NextNanopubNo(),
		PageSize:      j.PageSize(),
		CurrentPageNo: j.CurrentPageNo(),
	})
}

// countingWriter lets the handler tell whether the package stream failed
// before the first byte (still safe to send an error status) or midway.
type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (h *Handlers) getPackage(w http.ResponseWriter, r *http.Request) {
	pageNo, err := strconv.ParseInt(mux.Vars(r)["no"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid page number")
		return
	}
	wantGzip := strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
	if wantGzip {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.Header().Set("Content-Type", trigContentType)

	cw := &countingWriter{w: w}
	if err := h.DB.WritePackage(pageNo, wantGzip, cw); err != nil {
		if cw.n > 0 {
			// headers are gone; cut the stream and log
			logger.Error("package_stream_failed", "page", pageNo, "error", err)
			return
		}
		w.Header().Del("Content-Encoding")
		switch {
		case errors.Is(err, db.ErrInvalidPage):
			utils.JSONError(w, http.StatusBadRequest, "not a complete page")
		case errors.Is(err, db.ErrInconsistent):
			utils.JSONError(w, http.StatusInternalServerError, "journal inconsistency")
		default:
			logger.Error("package_stream_failed", "page", pageNo, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "internal error")
		}
	}
}
