package handlers

import "net/http"

// Health reports readiness. Both the database and the queue broker must be
// reachable for a 200.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.DB != nil {
		if err := a.DB.Ping(r.Context()); err != nil {
			a.Logger.Error().Err(err).Msg("api: database ping failed")
			a.error(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	if a.Broker != nil {
		if err := a.Broker.Ping(r.Context()); err != nil {
			a.Logger.Error().Err(err).Msg("api: broker ping failed")
			a.error(w, http.StatusServiceUnavailable, "unavailable", "queue broker unreachable")
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
