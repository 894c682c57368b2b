package routes

import (
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/config"
	"github.com/nicholaschiang/foss-tutorbook/internal/handlers"
	"github.com/nicholaschiang/foss-tutorbook/internal/middleware"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
	"github.com/nicholaschiang/foss-tutorbook/internal/stream"
	"github.com/nicholaschiang/foss-tutorbook/internal/workers"
)

// RegisterRoutes wires repositories, services, and handlers onto the app and
// returns the sweeper for the cron scheduler.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) *workers.Sweeper {
	userRepo := repository.NewUserRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	websiteRepo := repository.NewWebsiteRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	clockRepo := repository.NewClockRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	materialRepo := repository.NewMaterialRepository(db)

	var mailer services.EmailService
	if cfg.SendgridAPIKey != "" {
		mailer = services.NewSendgridMailService(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
	} else {
		mailer = services.NewConsoleMailService()
	}

	hub := stream.NewHub()
	go hub.Run()
	notifier := services.NewNotifier(mailer, hub)

	var paypalProvider services.Provider
	if cfg.PayPalClientID != "" && cfg.PayPalSecret != "" {
		provider, err := services.NewPayPalProvider(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalLive)
		if err != nil {
			log.Printf("paypal provider unavailable: %v", err)
		} else {
			paypalProvider = provider
		}
	}
	var stripeProvider services.Provider
	if cfg.StripeSecretKey != "" {
		stripeProvider = services.NewStripeProvider(cfg.StripeSecretKey)
	}
	providers := services.NewProviderSet(paypalProvider, stripeProvider)

	var storage services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storage = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	userService := services.NewUserService(db, userRepo, locationRepo, notifier)
	locationService := services.NewLocationService(locationRepo, notifier)
	websiteService := services.NewWebsiteService(websiteRepo, locationRepo, notifier)
	requestService := services.NewRequestService(db, requestRepo, userRepo, apptRepo, paymentRepo, locationRepo, providers, notifier)
	appointmentService := services.NewAppointmentService(db, apptRepo, paymentRepo, userRepo, locationRepo, providers, notifier)
	clockService := services.NewClockService(db, clockRepo, apptRepo, userRepo, paymentRepo, locationRepo, providers, notifier)
	paymentService := services.NewPaymentService(db, paymentRepo, payoutRepo, userRepo, apptRepo, locationRepo, providers, notifier)
	searchService := services.NewSearchService(userRepo)
	chatService := services.NewChatService(conversationRepo, messageRepo, userRepo, notifier)
	materialService := services.NewMaterialService(materialRepo, apptRepo, storage, notifier)

	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret)
	dataHandler := handlers.NewDataHandler(
		userService, locationService, websiteService,
		requestService, appointmentService, clockService, paymentService,
	)
	searchHandler := handlers.NewSearchHandler(searchService, userService)
	requestHandler := handlers.NewRequestHandler(requestService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, userService)
	clockHandler := handlers.NewClockHandler(clockService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	locationHandler := handlers.NewLocationHandler(locationService, websiteService)
	profileHandler := handlers.NewProfileHandler(userService, storage)
	chatHandler := handlers.NewChatHandler(chatService)
	materialHandler := handlers.NewMaterialHandler(materialService)
	streamHandler := handlers.NewStreamHandler(hub, chatService, locationRepo, cfg.JWTSecret)

	api := app.Group("/api", middleware.Partition(cfg.DefaultPartition))

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Post("/data", middleware.AuthRequired(cfg.JWTSecret), dataHandler.Dispatch)

	public := api.Group("/v1")
	public.Get("/websites/by-domain/:domain", locationHandler.GetWebsiteByDomain)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	tutors := protected.Group("/tutors")
	tutors.Get("", searchHandler.SearchTutors)
	tutors.Get("/:uid", searchHandler.GetTutor)

	locations := protected.Group("/locations")
	locations.Get("", locationHandler.ListLocations)
	locations.Get("/:id", locationHandler.GetLocation)
	locations.Get("/:id/websites", locationHandler.ListLocationWebsites)

	requests := protected.Group("/requests")
	requests.Get("", requestHandler.ListRequests)
	requests.Get("/:id", requestHandler.GetRequest)

	appointments := protected.Group("/appointments")
	appointments.Get("", appointmentHandler.ListAppointments)
	appointments.Get("/:id", appointmentHandler.GetAppointment)
	appointments.Post("/:id/rating", appointmentHandler.SubmitRating)
	appointments.Post("/:id/materials", materialHandler.Upload)
	appointments.Get("/:id/materials", materialHandler.List)

	protected.Delete("/materials/:id", materialHandler.Delete)
	protected.Get("/clock/pending", clockHandler.ListPending)
	protected.Get("/payments", paymentHandler.ListPayments)
	protected.Get("/payouts", paymentHandler.ListPayouts)
	protected.Post("/profile/avatar", profileHandler.UploadAvatar)

	conversations := protected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)

	api.Use("/v1/stream", streamHandler.Upgrade)
	api.Get("/v1/stream", websocket.New(streamHandler.HandleConnection))

	return workers.NewSweeper(requestRepo, apptRepo, clockRepo, locationRepo, userRepo, notifier, cfg.RequestTTLHours)
}
