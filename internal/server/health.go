package server

import (
	"encoding/json"
	"net/http"
)

type healthResp struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Images  int64  `json:"images"`
}

// healthHandler reports liveness plus a metadata-store round trip, so a
// dead database shows up here before it shows up as failed uploads.
func (cfg Config) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		n, err := cfg.Meta.Count(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthResp{
				Status:  "degraded",
				Version: cfg.Build.Version,
				Commit:  cfg.Build.Commit,
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthResp{
			Status:  "ok",
			Version: cfg.Build.Version,
			Commit:  cfg.Build.Commit,
			Images:  n,
		})
	})
}
