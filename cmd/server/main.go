package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/config"
	"github.com/tripio/travel-marketplace/internal/database"
	"github.com/tripio/travel-marketplace/internal/handler"
	"github.com/tripio/travel-marketplace/internal/middleware"
	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
	"github.com/tripio/travel-marketplace/internal/queue"
	"github.com/tripio/travel-marketplace/internal/repository"
	"github.com/tripio/travel-marketplace/internal/router"
	queue_publisher "github.com/tripio/travel-marketplace/internal/service"
)

func main() {
	// .env is optional; in containers the variables come from the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	regions := repository.NewRegionRepo(db)
	destinations := repository.NewDestinationRepo(db)
	packages := repository.NewPackageRepo(db)
	availabilities := repository.NewAvailabilityRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviews := repository.NewReviewRepo(db, packages, destinations)
	conversations := repository.NewConversationRepo(db)
	activities := repository.NewActivityRepo(db)

	// Payment gateway and service.  A successful webhook marks the
	// booking paid and fans the event out to the analytics queue.
	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewaySecretKey,
		time.Duration(cfg.GatewayTimeoutSec)*time.Second)
	paySvc := payment.NewService(gateway, payments, bookings)
	paySvc.OnBookingPaid = func(ctx context.Context, b model.Booking, p model.Payment) {
		ev := queue.BookingPaidEvent{
			BookingID:     b.ID,
			ReferenceCode: b.ReferenceCode,
			UserID:        b.UserID,
			PackageID:     b.PackageID,
			NumTravelers:  b.NumTravelers,
			AmountCents:   p.AmountCents,
			Currency:      p.Currency,
			PaymentID:     p.ID,
			TransactionID: p.TransactionID,
			PaidAt:        time.Now().UTC().Format(time.RFC3339),
		}
		if pkg, err := packages.GetByID(ctx, b.PackageID); err == nil {
			ev.PackageTitle = pkg.Title
		}
		if err := queue_publisher.PublishBookingPaid(ctx, ev); err != nil {
			log.Printf("publish booking.paid: %v", err)
		}
	}

	// Background consumers.  They reconnect on broker failure and never
	// take the API down with them.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer: %v", err)
		}
	}()
	go func() {
		if err := queue.StartActivityConsumer(activities); err != nil {
			log.Printf("activity consumer: %v", err)
		}
	}()

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := &handler.PublicHandler{
		RegionRepo:       regions,
		DestinationRepo:  destinations,
		PackageRepo:      packages,
		AvailabilityRepo: availabilities,
		ReviewRepo:       reviews,
	}
	bookingH := handler.NewBookingHandler(bookings, packages, availabilities, payments)
	paymentH := handler.NewPaymentHandler(paySvc, bookings, packages, payments, cfg.GatewayWebhookSecret)
	reviewH := handler.NewReviewHandler(reviews, bookings, packages)
	sellerH := handler.NewSellerHandler(packages, availabilities, destinations, bookings, activities)
	adminH := handler.NewAdminHandler(users, regions, destinations, packages, reviews, activities)
	chatH := handler.NewChatHandler(conversations, users, rdb)

	e := echo.New()
	e.HideBanner = true

	// Global token-bucket rate limit; falls back to in-process counting
	// when Redis is down.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, paymentH, cacheMW)
	router.RegisterBuyer(e, bookingH, paymentH, reviewH, cfg.JWTSecret)
	router.RegisterSeller(e, sellerH, paymentH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)
	router.RegisterChat(e, chatH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
