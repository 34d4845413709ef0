package http

import (
	"context"
	"net/http"

	"spesevoce/internal/log"
)

// Bulk sync runs detached from the request so a client disconnect does not
// leave the spreadsheet half cleared.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Sync.Upload(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Upload finished", log.FieldCount, n)
	NewJSONResponse().Body(countBody{Count: n}).Write(w)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Sync.Download(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Download finished", log.FieldCount, n)
	NewJSONResponse().Body(countBody{Count: n}).Write(w)
}
