package http

import (
	"net/http"
	"time"

	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/httpx"
)

type healthChecks struct {
	Database string `json:"database"`
}

type healthData struct {
	Status      string       `json:"status"`
	Uptime      string       `json:"uptime"`
	Version     string       `json:"version"`
	Environment string       `json:"environment"`
	Checks      healthChecks `json:"checks"`
}

// HealthHandler reports liveness plus database connectivity. Returns 503 with
// a degraded payload when the database is unreachable.
func HealthHandler(startTime time.Time, version, env string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := healthChecks{Database: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		data := healthData{
			Status:      status,
			Uptime:      time.Since(startTime).String(),
			Version:     version,
			Environment: env,
			Checks:      checks,
		}

		if code == http.StatusOK {
			httpx.WriteSuccess(w, code, "service healthy", data)
			return
		}
		httpx.WriteJSON(w, code, httpx.Response{Success: false, Message: "service degraded", Data: data})
	}
}

type welcomeData struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// WelcomeHandler is the root payload shown to anyone poking the base URL.
func WelcomeHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ServeMux routes every unmatched path to "/"; only the root itself
		// gets the welcome payload.
		if r.URL.Path != "/" {
			httpx.WriteError(w, http.StatusNotFound, "route not found")
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, "kart venue API", welcomeData{
			Service: "kartapi",
			Version: version,
			Docs:    "/api/v1",
		})
	}
}
