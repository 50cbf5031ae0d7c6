package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"galapagosrental/internal/api"
	"galapagosrental/internal/cart"
	"galapagosrental/internal/config"
	"galapagosrental/internal/events"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"
	"galapagosrental/internal/mail"
	"galapagosrental/internal/notify"
	"galapagosrental/internal/payment"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/repository"
	"galapagosrental/internal/scheduler"
	"galapagosrental/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open DB")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}

	var store cart.Store = cart.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		store = cart.NewRedisStore(rdb, cfg.Redis.CartTTL())
	} else {
		log.Warn().Msg("REDIS_ADDR not set, carts are kept in memory")
	}

	var pub events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled() {
		w := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer w.Close()
		pub = events.NewKafkaPublisher(w)
	}

	var sms notify.SMSSender = notify.Disabled{}
	if cfg.Twilio.Enabled() {
		sms = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}

	hotelFee, err := decimal.NewFromString(cfg.Business.HotelPickupFee)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid hotel pickup fee")
	}
	loc := cfg.Business.Location()

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	adminAuthRepo := repository.NewAdminAuthRepository(db)
	jobRepo := repository.NewJobRepository(db)

	gateway := payment.NewClient(payment.Config{
		BaseURL: cfg.Paymentez.BaseURL,
		AppCode: cfg.Paymentez.ServerAppCode,
		AppKey:  cfg.Paymentez.ServerAppKey,
	})
	dispatcher := mail.NewDispatcher(
		mail.NewSendGridSender(cfg.Mail.SendGridAPIKey),
		mail.NewLimiter(cfg.Mail.SendInterval(), cfg.Mail.Burst),
	)

	// Services
	carts := cart.New(store)
	catalogSvc := service.NewCatalogService(catalogRepo, adminRepo, orderRepo, customerRepo, pricing.Options{HotelFee: &hotelFee})
	cartSvc := service.NewCartService(carts, catalogSvc)
	checkoutSvc := service.NewCheckoutService(carts, catalogSvc, customerRepo, orderRepo, gateway, pub, sms)
	emailSvc := service.NewEmailService(orderRepo, customerRepo, adminRepo, mail.NewRenderer(mail.Passthrough{}), dispatcher, pub,
		service.MailFrom{Name: cfg.Mail.FromName, Email: cfg.Mail.FromEmail}, hotelFee, cfg.Business.FrontendURL)
	orderSvc := service.NewOrderService(orderRepo, customerRepo, gateway, emailSvc, pub,
		lifecycle.RefundPolicy{Location: loc, CutoffHour: cfg.Business.RefundCutoffHour})
	jobSvc := service.NewJobService(jobRepo, orderRepo, emailSvc, loc)
	adminSvc := service.NewAdminService(adminRepo)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryMinutes)*time.Minute)

	router := api.NewRouter(api.Handlers{
		Catalog:   api.NewCatalogHandler(catalogSvc),
		Cart:      api.NewCartHandler(cartSvc),
		Checkout:  api.NewCheckoutHandler(checkoutSvc, gateway),
		Orders:    api.NewOrderHandler(orderSvc, emailSvc),
		Admin:     api.NewAdminHandler(orderSvc, jobSvc, adminSvc),
		AdminAuth: api.NewAdminAuthHandler(adminAuthSvc),
	}, cfg.JWT.Secret)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	sched := scheduler.NewScheduler(jobSvc, cfg.Scheduler.ReviewReminders, loc)
	sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           cors(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
