package main // entry point of the booking API server

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/brunacrodrigues/vitoria-airlines/internal/booking"
	"github.com/brunacrodrigues/vitoria-airlines/internal/config"
	"github.com/brunacrodrigues/vitoria-airlines/internal/database"
	"github.com/brunacrodrigues/vitoria-airlines/internal/handler"
	"github.com/brunacrodrigues/vitoria-airlines/internal/middleware"
	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/router"
	"github.com/brunacrodrigues/vitoria-airlines/internal/scheduling"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
	"github.com/brunacrodrigues/vitoria-airlines/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	redisCfg := config.LoadRedisConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Println("redis unavailable; search cache and rate limiting disabled")
	}

	flightRepo := repository.NewFlightRepo(db)
	airplaneRepo := repository.NewAirplaneRepo(db)
	airportRepo := repository.NewAirportRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	userRepo := repository.NewUserRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := service.NewNotifier(cfg.NotifyQueueCap)
	notifier.Start(ctx)
	go queue.StartConsumer()

	checker := scheduling.NewChecker(cfg.GroundBuffer, cfg.RepositionGap)
	alloc := booking.NewAllocator(db, flightRepo, seatRepo, ticketRepo, userRepo, notifier, cfg.BcryptCost)
	provider := payment.NewSandbox(cfg.Env != "prod")
	reconciler := booking.NewReconciler(alloc, provider, userRepo, notifier, cfg.CheckoutURL)

	go sweeper.New(flightRepo, ticketRepo, userRepo, notifier, cfg.SweepInterval).Run(ctx)

	publicH := handler.NewPublicHandler(flightRepo, airportRepo, seatRepo, ticketRepo)
	bookingH := handler.NewBookingHandler(alloc, reconciler, ticketRepo, flightRepo, cfg.CancelCutoff)
	staffH := handler.NewStaffHandler(flightRepo, airplaneRepo, airportRepo, seatRepo, ticketRepo, checker, notifier)

	e := echo.New()
	e.Use(middleware.NewRateLimiter(redisCfg, rdb))

	router.RegisterRoutes(e)
	router.RegisterPublic(e, publicH, redisCfg, rdb)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret)
	router.RegisterStaff(e, staffH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
