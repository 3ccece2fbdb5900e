package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nanopubd/pkg/db"
	"nanopubd/pkg/logger"
	"nanopubd/pkg/nanopub"
	"nanopubd/pkg/utils"
)

const trigContentType = "application/trig; charset=utf-8"

// RegisterNanopubs registers the nanopub load/fetch/listing endpoints.
func (h *Handlers) RegisterNanopubs(r *mux.Router) {
	r.HandleFunc("/np", h.createNanopub).Methods(http.MethodPost)
	r.HandleFunc("/np/{code}", h.getNanopub).Methods(http.MethodGet)
	r.HandleFunc("/nanopubs", h.listPage).Methods(http.MethodGet)
}

func (h *Handlers) createNanopub(w http.ResponseWriter, r *http.Request) {
	limit := int64(16 << 20)
	if m := h.Cfg.Storage.MaxNanopubBytes.Int64(); m > 0 && m < limit {
		// slack for prefixes the normalizer strips before the size check
		limit = m * 2
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		utils.JSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	np, err := nanopub.Parse(body)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "malformed nanopub")
		return
	}
	code := nanopub.ArtifactCode(np.URI)
	dup := false
	if code != "" {
		dup, _ = h.DB.HasNanopub(code)
	}
	if err := h.DB.LoadNanopub(np); err != nil {
		switch {
		case errors.Is(err, db.ErrNotTrusty):
			utils.JSONError(w, http.StatusBadRequest, "nanopub is not trusty")
		case errors.Is(err, db.ErrOversized):
			utils.JSONError(w, http.StatusRequestEntityTooLarge, "nanopub exceeds size limits")
		case errors.Is(err, db.ErrServerFull):
			utils.JSONError(w, http.StatusInsufficientStorage, "server is full")
		default:
			logger.Error("nanopub_load_failed", "uri", np.URI, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "load failed")
		}
		return
	}
	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	} else {
		w.Header().Set("Location", "/np/"+code)
	}
	_ = utils.JSONWrite(w, status, struct {
		URI string `json:"uri"`
	}{URI: np.URI})
}

func (h *Handlers) getNanopub(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	np, err := h.DB.GetNanopub(code)
	if err != nil {
		if errors.Is(err, db.ErrNanopubNotFound) {
			utils.JSONError(w, http.StatusNotFound, "nanopub not found")
			return
		}
		logger.Error("nanopub_get_failed", "code", code, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", trigContentType)
	_, _ = w.Write([]byte(np.Content))
}

// listPage serves the plain-text URI listing of one journal page,
// defaulting to the current page, with weak-ETag and prev/next links.
func (h *Handlers) listPage(w http.ResponseWriter, r *http.Request) {
	j := h.DB.Journal()
	pageNo := j.CurrentPageNo()
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			utils.JSONError(w, http.StatusBadRequest, "invalid page number")
			return
		}
		pageNo = n
	}
	content, err := j.PageContent(pageNo)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "page not found")
		return
	}
	w.Header().Set("ETag", `W/"`+j.StateID()+`"`)
	w.Header().Add("Link", `<nanopubs?page=1>; rel="start"`)
	if pageNo > 1 {
		w.Header().Add("Link", fmt.Sprintf(`<nanopubs?page=%d>; rel="prev"`, pageNo-1))
	}
	if pageNo < j.CurrentPageNo() {
		w.Header().Add("Link", fmt.Sprintf(`<nanopubs?page=%d>; rel="next"`, pageNo+1))
	}
	utils.TextWrite(w, http.StatusOK, content)
}
