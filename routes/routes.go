package routes

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/venue-system/docs"
	"github.com/Dosada05/venue-system/handlers"
	"github.com/Dosada05/venue-system/middleware"
	"github.com/Dosada05/venue-system/services"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Events    *handlers.EventHandler
	Signups   *handlers.SignupHandler
	Sections  *handlers.SectionHandler
	Schedule  *handlers.ScheduleHandler
	Banner    *handlers.BannerHandler
	Contact   *handlers.ContactHandler
	Uploads   *handlers.UploadHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	Logger         *slog.Logger
	RequestTimeout time.Duration
	// TrustedProxies: только от них принимается X-Forwarded-For.
	TrustedProxies []*net.IPNet
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RealIP(opts.TrustedProxies))
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.Verifier, opts.Logger)
	adminOnly := middleware.Authorize(services.RoleAdmin)

	// Websocket регистрируется вне таймаута: соединение живёт долго.
	router.Get("/ws/events/{eventID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Get("/healthz", h.Health.Healthz)
		r.Get("/swagger/doc.json", docs.Handler)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.With(authenticate, adminOnly).Get("/me", h.Auth.Me)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.ListEvents)
			r.Get("/{eventID}", h.Events.GetEvent)
			r.Get("/{eventID}/links", h.Events.ListQuickLinks)
			r.Get("/{eventID}/calendar", h.Events.DownloadCalendar)
			r.Get("/{eventID}/qrcode", h.Events.SignupQRCode)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)

				r.Post("/", h.Events.CreateEvent)
				r.Put("/", h.Events.UpdateEvent)
				r.Delete("/", h.Events.DeleteEvent)
				r.Post("/{eventID}/links", h.Events.ReplaceQuickLinks)
				r.Post("/{eventID}/email", h.Events.SendBulkEmail)
			})
		})

		r.Route("/signups", func(r chi.Router) {
			r.Post("/", h.Signups.SubmitSignup)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)

				r.Get("/", h.Signups.ListSignups)
				r.Put("/", h.Signups.UpdateSignup)
				r.Delete("/", h.Signups.DeleteSignup)
				r.Get("/export", h.Signups.ExportSignups)
			})
		})

		r.Route("/sections", func(r chi.Router) {
			r.Get("/", h.Sections.ListSections)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)

				r.Post("/", h.Sections.CreateSection)
				r.Put("/", h.Sections.UpdateSection)
				r.Delete("/", h.Sections.DeleteSection)
				r.Post("/{sectionID}/move", h.Sections.MoveSection)
			})
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", h.Schedule.ListSchedule)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)

				r.Post("/", h.Schedule.AddToSchedule)
				r.Delete("/", h.Schedule.RemoveFromSchedule)
				r.Post("/{eventID}/move", h.Schedule.MoveScheduleItem)
			})
		})

		r.Route("/banner", func(r chi.Router) {
			r.Get("/", h.Banner.GetBanner)
			r.With(authenticate, adminOnly).Put("/", h.Banner.UpdateBanner)
		})

		r.Post("/contact", h.Contact.Submit)

		r.Route("/uploads", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", h.Uploads.UploadImage)
			r.Post("/delete", h.Uploads.DeleteFiles)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
