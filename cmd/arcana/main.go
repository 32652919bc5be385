package main

import (
	"context"
	"log/slog"
	"os"

	"arcana/config"
	"arcana/internal/delivery"
	deliveryhttp "arcana/internal/delivery/http"
	httpmiddleware "arcana/internal/delivery/http/middleware"
	"arcana/internal/delivery/http/router/handler"
	deliverymiddleware "arcana/internal/delivery/middleware"
	"arcana/internal/delivery/worker"
	"arcana/internal/infra/auth"
	logs "arcana/internal/infra/log"
	"arcana/internal/infra/mail"
	mongopersistence "arcana/internal/infra/persistence/mongo"
	"arcana/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		mongopersistence.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			mongopersistence.NewClientRepository,
			mongopersistence.NewUserRepository,
			mongopersistence.NewPendingSignupRepository,
			mongopersistence.NewSessionRepository,
			mongopersistence.NewVerificationRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTCodec,
			auth.NewCredentialGenerator,
			mail.New,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewClientService,
			impl.NewSessionManager,
			impl.NewVerificationService,
			impl.NewAccountService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			deliverymiddleware.NewRequestIDMiddleware,
			deliverymiddleware.NewLoggerMiddleware,
			httpmiddleware.NewAuthMiddleware,
			httpmiddleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewTokenHandler,
			handler.NewAuthHandler,
			handler.NewSessionHandler,
			handler.NewClientAdminHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				deliveryhttp.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewWorker,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
