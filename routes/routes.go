package routes

import (
	"github.com/arenaops/tournament-registration/handlers"
	"github.com/arenaops/tournament-registration/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	registrationHandler *handlers.RegistrationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		// Публичные маршруты для просмотра состава и листа ожидания
		r.Get("/registrations", registrationHandler.ListRegistrations)
		r.Get("/waitlist", registrationHandler.WaitlistStatus)

		// Защищенные маршруты
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/register", registrationHandler.Register)
			r.Post("/roster/archive", registrationHandler.ArchiveRoster)
		})
	})

	router.Route("/registrations/{registrationID}", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Delete("/", registrationHandler.Cancel)
		r.Post("/check-in", registrationHandler.CheckIn)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
