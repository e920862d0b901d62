package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gaadi/internal/auth"
	"gaadi/internal/domain/bookings"
	"gaadi/internal/domain/cars"
	"gaadi/internal/domain/coupons"
	"gaadi/internal/domain/parkings"
	"gaadi/internal/domain/pic"
	"gaadi/internal/domain/pushtokens"
	"gaadi/internal/domain/topups"
	"gaadi/internal/domain/users"
	"gaadi/internal/mailer"
	"gaadi/internal/notifications"
	"gaadi/internal/payments"
	"gaadi/internal/ratelimiter"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type storage struct {
	Bookings      bookings.Store
	Cars          cars.Store
	Coupons       coupons.Store
	Parkings      parkings.Store
	Verifications pic.Store
	Topups        topups.Store
	PushTokens    pushtokens.Store
	Users         users.Store
}

type application struct {
	config        config
	store         storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	push          notifications.PushSender
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	reconciler    *payments.Reconciler
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
	refSalt     string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Request context timeout; long uploads stay under it.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Gateway callbacks carry basic credentials, not user tokens.
		r.With(app.BasicAuthMiddleware()).Post("/payments/webhook", app.paymentWebhookHandler)

		r.Route("/cars", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/{carID}/availability", app.carAvailabilityHandler)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Post("/", app.createBookingHandler)
			r.Get("/", app.listMyBookingsHandler)

			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", app.getBookingHandler)
				r.Post("/cancel", app.cancelBookingHandler)
				r.Post("/reschedule", app.rescheduleBookingHandler)
				r.Post("/user-confirm", app.userConfirmBookingHandler)
				r.Get("/topups", app.listBookingTopupsHandler)
				r.Post("/topups", app.applyTopupHandler)

				r.Post("/otp", app.generateOTPHandler)

				// Handover and return run at the parking, by its operator.
				r.With(app.RequirePIC).Post("/otp/verify", app.verifyOTPHandler)
				r.With(app.RequirePIC).Post("/confirm", app.confirmBookingHandler)
				r.With(app.RequirePIC).Post("/deny", app.denyBookingHandler)
				r.With(app.RequirePIC).Post("/complete", app.completeBookingHandler)
			})
		})

		r.Route("/verifications", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequirePIC)

			r.Post("/", app.createVerificationHandler)
			r.Get("/latest", app.latestVerificationHandler)
			r.Route("/{verificationID}", func(r chi.Router) {
				r.Get("/", app.getVerificationHandler)
				r.Patch("/", app.updateVerificationHandler)
				r.Post("/images", app.uploadVerificationImagesHandler)
			})
		})

		r.Route("/topups", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listTopupsHandler)
		})

		r.Route("/push-tokens", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.registerPushTokenHandler)
			r.Delete("/", app.removePushTokenHandler)
			r.Post("/bulk-remove", app.bulkRemoveTokensHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"env":     app.config.env,
		"version": version,
	}
	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
