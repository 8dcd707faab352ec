package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/logger"
)

// routes registers every endpoint on mux.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("POST /file/add", s.handleFileAdd)
	mux.HandleFunc("GET /file/get/{hash}", s.handleFileGet)
	mux.HandleFunc("GET /file/delete/{hash}", s.handleFileDelete)
	mux.HandleFunc("DELETE /file/delete/{hash}", s.handleFileDelete)
	mux.HandleFunc("POST /file/find", s.handleFileFind)
	mux.HandleFunc("GET /tags/list", s.handleTagsList)
	mux.HandleFunc("POST /file/tags/add", s.handleTagsAdd)
	mux.HandleFunc("POST /modules/run", s.handleModulesRun)
	mux.HandleFunc("GET /projects/list", s.handleProjectsList)
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "Upload too large")
	case errors.Is(err, domain.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("api: %v", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

// formLookup adapts request form values to SelectSearchQuery.
func formLookup(r *http.Request) func(string) string {
	return func(field string) string { return r.FormValue(field) }
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "test")
}

func (s *Server) handleFileAdd(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err)
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	sample, err := s.ports.Samples.Store(r.Context(), r.FormValue("project"), header.Filename, file,
		domain.ParseTags(r.FormValue("tags")))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, err)
			return
		}
		logger.Error("storing upload %s: %v", header.Filename, err)
		writeMessage(w, http.StatusInternalServerError, "Unable to store file")
		return
	}
	logger.Debug("stored %s as %s", header.Filename, sample.SHA256)
	writeMessage(w, http.StatusOK, "added")
}

func (s *Server) handleFileGet(w http.ResponseWriter, r *http.Request) {
	rc, sample, err := s.ports.Samples.Open(r.Context(), r.URL.Query().Get("project"), r.PathValue("hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(sample.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("sending %s: %v", sample.SHA256, err)
	}
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Samples.Delete(r.Context(), r.URL.Query().Get("project"), r.PathValue("hash")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "deleted")
}

func (s *Server) handleFileFind(w http.ResponseWriter, r *http.Request) {
	query, err := domain.SelectSearchQuery(formLookup(r))
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.ports.Samples.Find(r.Context(), r.FormValue("project"), query)
	if err != nil {
		writeError(w, err)
		return
	}
	for project, samples := range results {
		if samples == nil {
			results[project] = []domain.Sample{}
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTagsList(w http.ResponseWriter, r *http.Request) {
	tags, err := s.ports.Samples.ListTags(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleTagsAdd(w http.ResponseWriter, r *http.Request) {
	query, err := domain.SelectSearchQuery(formLookup(r))
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := s.ports.Samples.AddTags(r.Context(), r.FormValue("project"), query,
		domain.ParseTags(r.FormValue("tags")))
	if err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeMessage(w, http.StatusNotFound, "File not found in the database")
		return
	}
	writeMessage(w, http.StatusOK, "added")
}

func (s *Server) handleModulesRun(w http.ResponseWriter, r *http.Request) {
	cmdline := r.FormValue("cmdline")
	if cmdline == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid command line")
		return
	}

	result, err := s.ports.Dispatcher.Dispatch(r.Context(), domain.ChainRequest{
		Project: r.FormValue("project"),
		SHA256:  r.FormValue("sha256"),
		Command: cmdline,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleProjectsList lists named projects as [name, created] pairs.
// The default project is the storage root and is not listed.
func (s *Server) handleProjectsList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ports.Projects.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var rows [][]string
	for _, p := range projects {
		if p.IsDefault() {
			continue
		}
		rows = append(rows, []string{p.Name, p.CreatedAt.Format(time.ANSIC)})
	}
	if len(rows) == 0 {
		writeMessage(w, http.StatusNotFound, "No projects found")
		return
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	writeJSON(w, http.StatusOK, rows)
}
