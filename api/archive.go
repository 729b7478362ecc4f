package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/openclaw/qrcodemaker/generate"
)

type recordResponse struct {
	Line     int    `json:"line"`
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
	Code     string `json:"code"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

type archiveResponse struct {
	JobID     string           `json:"job_id"`
	Folder    string           `json:"folder"`
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Records   []recordResponse `json:"records"`
}

// maxArchiveUpload bounds the multipart body of POST /archive.
const maxArchiveUpload = 32 << 20

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxArchiveUpload); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	folder := r.FormValue("folder")
	if folder == "" || folder != filepath.Base(folder) || folder == "." || folder == ".." {
		writeError(w, http.StatusBadRequest, "folder must be a single directory name")
		return
	}

	format, size, err := s.parseImageParams(r.FormValue("format"), r.FormValue("size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	header := s.Defaults.Header
	if _, ok := r.MultipartForm.Value["header"]; ok {
		header = r.FormValue("header")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	src, err := spoolUpload(file)
	if err != nil {
		s.Log.Error("spool archive upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(src)

	report, err := s.Generator.ArchiveFile(src, filepath.Join(s.OutputDir, folder), header, format, size)
	code := generate.CodeOf(err)

	resp := archiveResponse{
		JobID:     report.JobID,
		Folder:    folder,
		Code:      code.String(),
		Message:   generate.Message(err, s.Language),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
		Records:   make([]recordResponse, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		rr := recordResponse{
			Line:     o.Record.Line,
			Text:     o.Record.Text,
			Filename: o.Record.Filename,
			Code:     o.Code.String(),
			Skipped:  o.Skipped,
		}
		if o.Err != nil {
			rr.Error = o.Err.Error()
		}
		resp.Records = append(resp.Records, rr)
	}

	writeJSON(w, httpStatus(code), resp)
}

// spoolUpload copies an uploaded archive to a temporary file and returns its
// path. The caller removes it.
func spoolUpload(r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "qrcodemaker-archive-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}
