package handlers

import "net/http"

// Health reports process liveness. It deliberately does not touch the
// database or the provider: a degraded provider must not restart the API.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "service": "studio"})
}
