package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/lfcamara/b3fund/internal/report"
	"github.com/lfcamara/b3fund/pkg/logger"
)

var runIDPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// ResultHandler serves saved backtest artifacts.
type ResultHandler struct {
	baseDir string
	logger  *logger.Logger
}

// NewResultHandler creates a result handler reading from the report
// output directory.
func NewResultHandler(baseDir string, log *logger.Logger) *ResultHandler {
	return &ResultHandler{
		baseDir: baseDir,
		logger:  log,
	}
}

// ListRuns returns the saved runs, newest first
// GET /api/results
func (h *ResultHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := report.ListRuns(h.baseDir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetResult returns the full result of one run
// GET /api/results/{id}
func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, report.FileResult)
}

// GetMetrics returns the metrics of one run
// GET /api/results/{id}/metrics
func (h *ResultHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, report.FileMetrics)
}

// GetHistory returns the daily portfolio history of one run
// GET /api/results/{id}/history
func (h *ResultHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	path := filepath.Join(h.baseDir, id, report.FileHistory)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to read history")
		respondError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// serveArtifact streams a stored JSON artifact as-is.
func (h *ResultHandler) serveArtifact(w http.ResponseWriter, r *http.Request, file string) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	path := filepath.Join(h.baseDir, id, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to read artifact")
		respondError(w, http.StatusInternalServerError, "Failed to read artifact")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// runID extracts and validates the run id path variable. The pattern
// check keeps path traversal out of the artifact directory.
func runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if !runIDPattern.MatchString(id) {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return "", false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
