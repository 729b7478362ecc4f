package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/openclaw/qrcodemaker/generate"
)

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "text query parameter is required")
		return
	}

	format, size, err := s.parseImageParams(q.Get("format"), q.Get("size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.Generator.Render(&buf, text, format, size); err != nil {
		s.Log.Warn("qr render failed", "error", err)
		writeError(w, httpStatus(generate.CodeOf(err)), generate.Message(err, s.Language))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
