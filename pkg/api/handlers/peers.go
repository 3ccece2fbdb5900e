package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/serverinfo"
	"nanopubd/pkg/utils"
)

// RegisterPeers registers the peer registry endpoints.
func (h *Handlers) RegisterPeers(r *mux.Router) {
	r.HandleFunc("/peers", h.listPeers).Methods(http.MethodGet)
	r.HandleFunc("/peers", h.addPeer).Methods(http.MethodPost)
}

func (h *Handlers) listPeers(w http.ResponseWriter, r *http.Request) {
	peers, err := h.DB.PeerURIs()
	if err != nil {
		logger.Error("peer_list_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var b strings.Builder
	for _, p := range peers {
		b.WriteString(p)
		b.WriteString("\n")
	}
	utils.TextWrite(w, http.StatusOK, b.String())
}

func (h *Handlers) addPeer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid json: expected {\"url\": ...}")
		return
	}
	if err := h.DB.AddPeer(r.Context(), strings.TrimSpace(req.URL)); err != nil {
		switch {
		case errors.Is(err, serverinfo.ErrUnreachable):
			utils.JSONError(w, http.StatusBadGateway, "peer unreachable")
		case errors.Is(err, serverinfo.ErrInvalid):
			utils.JSONError(w, http.StatusBadRequest, "peer returned an invalid info document")
		default:
			logger.Error("peer_add_failed", "url", req.URL, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, struct {
		URL string `json:"url"`
	}{URL: req.URL})
}
