package mcp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codexankiiit31/career-retrieval/internal/index"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Chunks    int    `json:"chunks"`
	Timestamp string `json:"timestamp"`
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. The
// process is healthy as long as it is serving; the response additionally
// reports whether an index has been published and how many chunks it holds.
func NewHealthHandler(handle *index.Handle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "healthy",
			Index:     "empty",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if ix := handle.Current(); ix != nil {
			response.Index = "published"
			response.Chunks = ix.Len()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
