package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"betmetrics/internal/core"
	"betmetrics/internal/ingest"
)

// fileStatus is one row of the upload outcome partial.
type fileStatus struct {
	Name     string
	Rows     int
	Dropped  int
	Warnings []string
	Error    string
}

type uploadData struct {
	Files       []fileStatus
	TotalRows   int
	TotalFailed int
}

// handleUpload ingests one or more .xlsx files into the session. Each
// file succeeds or fails on its own: a rejected file never blocks the
// others in the same request.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.ErrorContext(r.Context(), "Parse multipart form error", "error", err)
		ErrorResponse(http.StatusRequestEntityTooLarge, "Upload too large or malformed").Write(w)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		BadRequestError("No files in upload").Write(w)
		return
	}

	sessionID := s.ensureSession(w, r)
	brand, _ := core.ParseSource(sanitizeInput(r.FormValue("brand")))

	data := uploadData{}
	for _, fh := range files {
		status := fileStatus{Name: fh.Filename}

		f, err := fh.Open()
		if err != nil {
			slog.ErrorContext(r.Context(), "Open uploaded file error", "file", fh.Filename, "error", err)
			status.Error = "could not read uploaded file"
			data.Files = append(data.Files, status)
			data.TotalFailed++
			continue
		}

		summary, err := s.svc.IngestFile(r.Context(), sessionID, fh.Filename, f, brand)
		_ = f.Close()
		if err != nil {
			var missing *ingest.MissingColumnsError
			switch {
			case errors.As(err, &missing):
				status.Error = "missing required columns: " + strings.Join(missing.Columns, ", ")
			default:
				slog.ErrorContext(r.Context(), "Ingest error", "file", fh.Filename, "error", err)
				status.Error = "file could not be parsed"
			}
			data.Files = append(data.Files, status)
			data.TotalFailed++
			continue
		}

		status.Rows = summary.Rows
		status.Dropped = summary.Dropped
		status.Warnings = summary.Warnings
		data.Files = append(data.Files, status)
		data.TotalRows += summary.Rows
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "upload_status.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Upload template execution failed", "error", err, "template", "upload_status.html")
		InternalServerError("Could not render upload outcome").Write(w)
		return
	}

	totalDropped := 0
	for _, fs := range data.Files {
		totalDropped += fs.Dropped
	}

	builder := NewHTMXResponse().
		TriggerUploadCompleted(data.TotalRows, totalDropped).
		BodyHTML(buf.String())
	if data.TotalFailed > 0 && data.TotalRows == 0 {
		builder.Status(http.StatusUnprocessableEntity)
	}
	builder.Write(w)
}
