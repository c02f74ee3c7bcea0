package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TetyanaPavlyuk/library-api-service/api/controllers"
	borrowingcontrollers "github.com/TetyanaPavlyuk/library-api-service/api/controllers/borrowings"
	paymentcontrollers "github.com/TetyanaPavlyuk/library-api-service/api/controllers/payments"
	"github.com/TetyanaPavlyuk/library-api-service/api/middleware"
	"github.com/TetyanaPavlyuk/library-api-service/internal/books"
	"github.com/TetyanaPavlyuk/library-api-service/internal/borrowings"
	"github.com/TetyanaPavlyuk/library-api-service/internal/payments"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth/session"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/config"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	revocations session.RevocationChecker,
	bookService books.Service,
	borrowingService borrowings.Service,
	paymentService payments.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/library", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWT, revocations, logg))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.BookList(bookService, logg))
			r.Get("/{bookId}", controllers.BookDetail(bookService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Post("/", controllers.BookCreate(bookService, logg))
				r.Patch("/{bookId}", controllers.BookUpdate(bookService, logg))
				r.Put("/{bookId}", controllers.BookUpdate(bookService, logg))
				r.Delete("/{bookId}", controllers.BookDelete(bookService, logg))
			})
		})

		r.Route("/borrowings", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Get("/", borrowingcontrollers.List(borrowingService, logg))
			r.Post("/", borrowingcontrollers.Create(borrowingService, cfg.Library.PublicBaseURL, logg))
			r.Route("/{borrowingId}", func(r chi.Router) {
				r.Get("/", borrowingcontrollers.Detail(borrowingService, logg))
				r.Post("/return", borrowingcontrollers.Return(borrowingService, cfg.Library.PublicBaseURL, logg))
				notAllowed := borrowingcontrollers.MethodNotAllowed(logg)
				r.Put("/", notAllowed)
				r.Patch("/", notAllowed)
				r.Delete("/", notAllowed)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/success", paymentcontrollers.Success(paymentService, logg))
			r.Get("/cancel", paymentcontrollers.Cancel())

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Get("/", paymentcontrollers.List(paymentService, logg))
				r.Post("/create_payment", paymentcontrollers.CreatePayment(paymentService, logg))
				r.Post("/create_fine", paymentcontrollers.CreateFine(paymentService, logg))
				r.Route("/{paymentId}", func(r chi.Router) {
					r.Get("/", paymentcontrollers.Detail(paymentService, logg))
					forbidden := paymentcontrollers.Forbidden(logg)
					r.Put("/", forbidden)
					r.Patch("/", forbidden)
					r.Delete("/", forbidden)
				})
			})
		})
	})

	return r
}
