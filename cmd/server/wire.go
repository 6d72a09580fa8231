//go:build wireinject
// +build wireinject

package main

import (
	"creative_cure_backend/internal/app"
	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/auth"
	"creative_cure_backend/internal/booking"
	"creative_cure_backend/internal/chat"
	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/dashboard"
	"creative_cure_backend/internal/filestorage"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/jobs"
	"creative_cure_backend/internal/platform/database"
	"creative_cure_backend/internal/platform/logger"
	"creative_cure_backend/internal/platform/messaging"
	"creative_cure_backend/internal/platform/redis"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"
	"creative_cure_backend/internal/therapist"
	"creative_cure_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDatabase,
		database.NewMongoDatabase,
		redis.NewClient,
		messaging.NewPublisher,
		provideMetrics,

		// Firebase
		firebase.NewClients,
		firebase.NewAuthService,
		wire.Bind(new(session.TokenVerifier), new(*firebase.AuthService)),
		wire.Bind(new(auth.IdentityProvider), new(*firebase.AuthService)),
		wire.Bind(new(user.DisplayNameUpdater), new(*firebase.AuthService)),

		// Accounts and sessions
		filestorage.NewBlobStore,
		provideAvatarStore,
		provideUserRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(shared.AccountService), new(*user.ServiceImplementation)),
		wire.Bind(new(auth.AccountStore), new(*user.ServiceImplementation)),
		session.NewProvider,
		wire.Bind(new(auth.SessionPublisher), new(*session.Provider)),
		wire.Bind(new(chat.SessionSubscriber), new(*session.Provider)),
		auth.NewService,
		wire.Bind(new(auth.Service), new(*auth.ServiceImplementation)),

		// Domain modules
		provideAppointmentRepository,
		appointment.NewService,
		wire.Bind(new(appointment.Service), new(*appointment.ServiceImplementation)),
		wire.Bind(new(booking.Appointments), new(*appointment.ServiceImplementation)),
		wire.Bind(new(dashboard.AppointmentLister), new(*appointment.ServiceImplementation)),
		provideTherapistIndex,
		therapist.NewService,
		wire.Bind(new(therapist.Service), new(*therapist.ServiceImplementation)),
		wire.Bind(new(booking.Directory), new(*therapist.ServiceImplementation)),
		wire.Bind(new(jobs.IndexSyncer), new(*therapist.ServiceImplementation)),
		provideDraftStore,
		provideBookingService,
		wire.Bind(new(booking.Service), new(*booking.ServiceImplementation)),
		provideHistoryRepository,
		dashboard.NewComposer,
		provideChatStore,
		chat.NewNotifier,
		provideFeed,
		jobs.NewDirectoryIndexJob,

		// Handlers
		auth.NewHandler,
		user.NewHandler,
		therapist.NewHandler,
		appointment.NewHandler,
		booking.NewHandler,
		dashboard.NewHandler,
		chat.NewHandler,
		wire.Struct(new(app.Handlers), "*"),

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
