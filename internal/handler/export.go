package handler

import (
	"bytes"
	"net/http"
	"strconv"
)

// ExportRoute handles GET /routes/api/routes/{routeID}/export?format=gpx|csv|json.
// The default format is GPX, the interchange format map tools expect.
func (s *Server) ExportRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}

	rows, err := s.export.Export(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	// Render into a buffer first so encoding failures can still produce a
	// well-formed error response.
	var buf bytes.Buffer
	var contentType, ext string

	switch format := r.URL.Query().Get("format"); format {
	case "", "gpx":
		contentType, ext = "application/gpx+xml", "gpx"
		err = s.export.WriteGPX(&buf, rows)
	case "csv":
		contentType, ext = "text/csv", "csv"
		err = s.export.WriteCSV(&buf, rows)
	case "json":
		contentType, ext = "application/json", "json"
		err = s.export.WriteJSON(&buf, rows)
	default:
		respondBadRequest(w, "unknown format "+strconv.Quote(format))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="route.`+ext+`"`)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	buf.WriteTo(w)
}
