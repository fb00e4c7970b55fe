package httpapi

import (
	stdhttp "net/http"

	"upscaler/internal/http/handlers"
	ownmw "upscaler/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, ownmw.Logger(app.Logger))

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/accounts", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Get("/{account_key}/balance", app.Balance)
		r.Get("/{account_key}/referrals", app.Referrals)
		r.Post("/{account_key}/credits", app.AddCredits)
	})

	r.Post("/v1/upscale", app.Upscale)
	r.Get("/v1/result/{job_id}", app.Result)

	return r
}
