package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mkravets/phonebook-be/internal/api/handlers"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/services"
	"github.com/mkravets/phonebook-be/internal/storage"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	signer *auth.Signer,
	users storage.UserStore,
	userService services.UserServiceProvider,
	avatarService services.AvatarServiceProvider,
	contactService services.ContactServiceProvider,
	uploadDir string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, avatarService, uploadDir)
	contactHandler := handlers.NewContactHandler(contactService)

	authenticated := auth.Middleware(signer, users)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Get("/verify/{verificationToken}", userHandler.Verify)
		r.Post("/verify", userHandler.ResendVerification)
		r.Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/current", userHandler.GetCurrent)
			r.Post("/logout", userHandler.Logout)
			r.Patch("/", userHandler.UpdateSubscription)
			r.Patch("/avatar", userHandler.UpdateAvatar)
		})
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", contactHandler.GetAll)
		r.Post("/", contactHandler.Create)
		r.Route("/{contactId}", func(r chi.Router) {
			r.Get("/", contactHandler.Get)
			r.Put("/", contactHandler.Update)
			r.Delete("/", contactHandler.Delete)
		})
	})

	return r
}
