package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/config"
	"github.com/openstall/marketplace/controllers"
	"github.com/openstall/marketplace/database"
	"github.com/openstall/marketplace/middleware"
	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	awspkg "github.com/openstall/marketplace/pkg/aws"
	"github.com/openstall/marketplace/pkg/events"
	"github.com/openstall/marketplace/pkg/logger"
	"github.com/openstall/marketplace/repository"
	"github.com/openstall/marketplace/routes"
	"github.com/openstall/marketplace/services"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()
	log := logger.Log

	// Stores
	mongoDB, closeMongo, err := database.ConnectMongo(cfg.MongoURL, cfg.MongoDBName)
	if err != nil {
		log.Fatal("mongo connection failed", zap.Error(err))
	}
	defer closeMongo()

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	paymentsDB, err := database.ConnectPostgres(cfg.PostgresDSN, &models.Payment{})
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(mongoDB)
	productRepo := repository.NewProductRepository(mongoDB)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
	paymentRepo := repository.NewPaymentRepository(paymentsDB)

	// External collaborators
	gateway := services.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency)

	var blobs services.BlobStore
	var publisher services.EventPublisher
	awsCfg, err := awspkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Warn("aws config unavailable, image uploads and notifications disabled", zap.Error(err))
	} else {
		blobs = awspkg.NewS3BlobStore(awsCfg, cfg.S3Bucket)
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = &events.Fanout{
			Producer: producer,
			SNS:      awspkg.NewSNSClient(awsCfg),
			TopicArn: cfg.SNSTopicArn,
			Log:      log,
		}
	}

	// Services
	cartSvc := services.NewCartService(cartRepo, userRepo, productRepo)
	checkoutSvc := services.NewCheckoutService(cartRepo, userRepo, productRepo, paymentRepo, gateway, publisher, cfg.Currency, log)
	payoutSvc := services.NewPayoutService(userRepo, paymentRepo, gateway, log)
	productSvc := services.NewProductService(productRepo, userRepo, blobs, log)
	userSvc := services.NewUserService(userRepo, gateway, log)

	// HTTP
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(apperrors.ErrorMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware())

	routes.Register(router, cfg.JWTSecret,
		controllers.NewCartController(cartSvc),
		controllers.NewCheckoutController(checkoutSvc, payoutSvc, cfg.FrontendURL),
		controllers.NewProductController(productSvc),
		controllers.NewUserController(userSvc, cfg.StripeRedirectURL),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("marketplace server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("shutdown error", zap.Error(err))
	}
	log.Info("server shutdown complete")
}
