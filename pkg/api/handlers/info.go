package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"nanopubd/pkg/serverinfo"
	"nanopubd/pkg/utils"
)

// RegisterInfo registers the identity document endpoint consumed by peers.
func (h *Handlers) RegisterInfo(r *mux.Router) {
	r.HandleFunc(serverinfo.Path, h.serverInfo).Methods(http.MethodGet)
}

func (h *Handlers) serverInfo(w http.ResponseWriter, r *http.Request) {
	j := h.DB.Journal()
	info := serverinfo.ServerInfo{
		PublicURL:         h.Cfg.Server.PublicURL,
		JournalID:         j.ID(),
		PageSize:          j.PageSize(),
		NextNanopubNo:     j.NextNanopubNo(),
		MaxNanopubTriples: h.Cfg.Storage.MaxNanopubTriples,
		MaxNanopubBytes:   h.Cfg.Storage.MaxNanopubBytes.Int64(),
		MaxNanopubs:       h.Cfg.Storage.MaxNanopubs,
	}
	_ = utils.JSONWrite(w, http.StatusOK, info)
}
