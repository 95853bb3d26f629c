package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/broadcast"
	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/database"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/pricing"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/reservation"
	"github.com/iliyamo/cinema-ticketing/internal/router"
	queue_publisher "github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/settlement"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables the response cache, the
	// rate limiter and the pricing cache, each of which degrades on its own.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, caching and rate limiting disabled")
	}

	showingRepo := repository.NewShowingRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	holdRepo := repository.NewHoldRepo(db)
	statusRepo := repository.NewSeatStatusRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	userRepo := repository.NewUserRepo(db)
	priceRepo := repository.NewSeatTypePriceRepo(db)

	hub := broadcast.NewHub()
	manager := reservation.NewManager(db, holdRepo, statusRepo, hub)
	resolver := reservation.NewResolver(showingRepo, seatRepo, holdRepo, statusRepo)
	prices := pricing.NewService(priceRepo, rdb, 0)

	vnp := payment.NewVNPay(payment.VNPayConfig{
		TmnCode:    cfg.VNPayTmnCode,
		HashSecret: cfg.VNPayHashSecret,
		BaseURL:    cfg.VNPayBaseURL,
		ReturnURL:  cfg.VNPayReturnURL,
	})
	momo := payment.NewMoMo(payment.MoMoConfig{
		PartnerCode: cfg.MoMoPartnerCode,
		AccessKey:   cfg.MoMoAccessKey,
		SecretKey:   cfg.MoMoSecretKey,
		Endpoint:    cfg.MoMoEndpoint,
		RedirectURL: cfg.MoMoRedirectURL,
		IPNURL:      cfg.MoMoIPNURL,
	}, nil)
	gateways := map[string]payment.Gateway{
		vnp.Name():  vnp,
		momo.Name(): momo,
	}

	delivery := queue_publisher.NewPublisher(cfg.RabbitURL)
	orch := settlement.NewOrchestrator(db, orderRepo, paymentRepo, holdRepo, statusRepo, ticketRepo, userRepo, hub, delivery)

	// Background loops: the hold sweeper and the delivery consumer both
	// run for the lifetime of the process.
	sweeper := reservation.NewSweeper(db, holdRepo, hub, time.Duration(cfg.SweepIntervalSec)*time.Second)
	go sweeper.Run(context.Background())
	go func() {
		if err := queue.StartDeliveryConsumer(); err != nil {
			log.Printf("delivery-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	browse := handler.NewBrowseHandler(showingRepo, resolver, holdRepo, orderRepo, ticketRepo)
	reserve := handler.NewReservationHandler(showingRepo, manager)
	checkout := handler.NewCheckoutHandler(showingRepo, seatRepo, holdRepo, orderRepo, paymentRepo, prices, gateways)
	callbacks := handler.NewCallbackHandler(orch, vnp, momo)

	router.RegisterRoutes(e)
	router.RegisterBrowse(e, browse, cache)
	router.RegisterReservation(e, reserve, cfg.JWTSecret)
	router.RegisterCheckout(e, checkout, browse, cfg.JWTSecret)
	router.RegisterCallbacks(e, callbacks)
	router.RegisterRealtime(e, broadcast.Handler("/realtime", hub))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
