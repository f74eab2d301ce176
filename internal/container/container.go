package container

import (
	"log"
	"time"

	"rentora-api-io/api/pkg/controllers"
	"rentora-api-io/api/pkg/providers"
	"rentora-api-io/api/pkg/services"
	"rentora-api-io/api/pkg/util"
)

// enqueueTimeout bounds how long a dispatch may wait on the broker before
// falling back to inline execution.
const enqueueTimeout = 3 * time.Second

type ServiceContainer struct {
	Store               services.VerificationStore
	Broker              *services.RedisBroker
	DispatchService     services.DispatchService
	VerificationService services.VerificationService
	AdminReviewService  services.AdminReviewService
	OwnerReviewService  services.OwnerReviewService
	NotificationService services.NotificationService

	VerificationController      *controllers.VerificationController
	AdminVerificationController *controllers.AdminVerificationController
	OwnerVerificationController *controllers.OwnerVerificationController
}

func NewServiceContainer() *ServiceContainer {
	store := services.NewMongoVerificationStore()

	cipher, err := util.NewNumberCipher(util.MustLoadEnvFor("DOCUMENT_CIPHER_KEY"))
	if err != nil {
		log.Fatalf("document cipher init failed: %v", err)
	}

	storage, err := util.NewDocumentStorage(
		util.MustLoadEnvFor("CLOUDINARY_CLOUD_NAME"),
		util.MustLoadEnvFor("CLOUDINARY_API_KEY"),
		util.MustLoadEnvFor("CLOUDINARY_API_SECRET"),
	)
	if err != nil {
		log.Fatalf("document storage init failed: %v", err)
	}

	providerName := util.LoadEnvFor("PROVIDER_NAME")
	if providerName == "" {
		providerName = "sandbox"
	}
	provider, err := providers.New(providerName, providers.Config{
		BaseURL: util.LoadEnvFor("PROVIDER_BASE_URL"),
		APIKey:  util.LoadEnvFor("PROVIDER_API_KEY"),
	})
	if err != nil {
		log.Fatalf("verification provider init failed: %v", err)
	}

	notifier := services.NewNotificationService(
		util.LoadEnvFor("NOTIFY_BASE_URL"),
		util.LoadEnvFor("NOTIFY_SHARED_KEY"),
		store,
	)

	broker := services.NewRedisBroker(util.REDIS())
	dispatcher := services.NewDispatchService(broker, store, enqueueTimeout)

	verificationService := services.NewVerificationService(store, storage, cipher, provider, notifier, dispatcher)
	// the dispatcher falls back to running jobs inline, so it needs the
	// routine it dispatches to
	dispatcher.SetRunner(verificationService.RunVerification)

	adminReviewService := services.NewAdminReviewService(store, storage, notifier)
	ownerReviewService := services.NewOwnerReviewService(store, storage, notifier)

	verificationController := controllers.InitVerificationController(verificationService)
	adminVerificationController := controllers.InitAdminVerificationController(adminReviewService)
	ownerVerificationController := controllers.InitOwnerVerificationController(ownerReviewService)

	return &ServiceContainer{
		Store:               store,
		Broker:              broker,
		DispatchService:     dispatcher,
		VerificationService: verificationService,
		AdminReviewService:  adminReviewService,
		OwnerReviewService:  ownerReviewService,
		NotificationService: notifier,

		VerificationController:      verificationController,
		AdminVerificationController: adminVerificationController,
		OwnerVerificationController: ownerVerificationController,
	}
}

// GetVerificationController returns the customer verification controller instance
func (sc *ServiceContainer) GetVerificationController() *controllers.VerificationController {
	return sc.VerificationController
}

// GetAdminVerificationController returns the admin review controller instance
func (sc *ServiceContainer) GetAdminVerificationController() *controllers.AdminVerificationController {
	return sc.AdminVerificationController
}

// GetOwnerVerificationController returns the owner review controller instance
func (sc *ServiceContainer) GetOwnerVerificationController() *controllers.OwnerVerificationController {
	return sc.OwnerVerificationController
}
