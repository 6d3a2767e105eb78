// Package app assembles BillBuzz from its configuration: storage, event
// streams, repositories, services, the notification scheduler and the HTTP
// router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billbuzz/billbuzz/internal/command"
	"github.com/billbuzz/billbuzz/internal/config"
	"github.com/billbuzz/billbuzz/internal/handler"
	"github.com/billbuzz/billbuzz/internal/notify"
	"github.com/billbuzz/billbuzz/internal/query"
	"github.com/billbuzz/billbuzz/internal/repository"
	"github.com/billbuzz/billbuzz/internal/storage"
	"github.com/billbuzz/billbuzz/shared/events"
	"github.com/billbuzz/billbuzz/shared/middleware"
	sharedredis "github.com/billbuzz/billbuzz/shared/redis"
)

type App struct {
	Config *config.Config

	Users    *repository.UserRepository
	Payments *repository.PaymentRepository

	PaymentCommands *command.PaymentCommandService
	PaymentQueries  *query.PaymentQueryService
	SessionCommands *command.SessionCommandService
	SessionQueries  *query.SessionQueryService

	Permission *notify.PermissionStore
	Scheduler  *notify.Scheduler
	Tokens     *middleware.Tokens

	backend *storage.Backend
	events  *sharedredis.Client
}

// New opens the configured backends and loads persisted state. The caller
// owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	permission, err := notify.ParsePermission(cfg.Notifications.Permission)
	if err != nil {
		return nil, err
	}
	tokens, err := middleware.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a := &App{Config: cfg, Tokens: tokens, backend: backend}

	publisher, native, err := a.openEvents(ctx)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	a.Users = repository.NewUserRepository(backend.Store)
	a.Payments = repository.NewPaymentRepository(backend.Store)
	a.Users.Load(ctx)
	a.Payments.Load(ctx, time.Now())

	a.PaymentCommands = command.NewPaymentCommandService(a.Payments, publisher)
	a.PaymentQueries = query.NewPaymentQueryService(a.Payments, loc)
	a.SessionCommands = command.NewSessionCommandService(a.Users, publisher)
	a.SessionQueries = query.NewSessionQueryService(a.Users)

	a.Permission = notify.NewPermissionStore(permission)
	a.Scheduler = notify.NewScheduler(a.PaymentQueries, a.Permission, native, notify.Options{
		Interval:     cfg.Notifications.Interval,
		DismissAfter: cfg.Notifications.DismissAfter,
		MaxAge:       cfg.Notifications.MaxAge,
		FeedSize:     cfg.Notifications.FeedSize,
		Location:     loc,
	})
	a.Permission.OnChange(func(notify.Permission) { a.Scheduler.Wake() })
	a.PaymentCommands.Observe(a.Scheduler)
	a.SessionCommands.Observe(a.Scheduler)

	return a, nil
}

// openEvents returns the publisher for domain events and the native
// notification sink. With events disabled, events are dropped and native
// notifications go to the log.
func (a *App) openEvents(ctx context.Context) (command.EventPublisher, notify.Native, error) {
	if !a.Config.Events.Enabled {
		return events.NopPublisher{}, notify.LogNative{}, nil
	}

	client := a.backend.Redis
	if client == nil {
		r := a.Config.Storage.Redis
		c, err := sharedredis.NewClient(ctx, sharedredis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err != nil {
			return nil, nil, fmt.Errorf("open event stream: %w", err)
		}
		a.events = c
		client = c
	}
	publisher := events.NewPublisher(client.Client)
	return publisher, notify.NewStreamNative(publisher), nil
}

// Start resumes a persisted session, if any.
func (a *App) Start(ctx context.Context) {
	if user := a.Users.Current(); user != nil {
		slog.Info("Resuming session", "userId", user.ID)
		a.Scheduler.Start(ctx)
	}
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	errs = append(errs, a.backend.Close())
	return errors.Join(errs...)
}

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handler.NewAuthHandler(a.SessionCommands, a.SessionQueries, a.Tokens)
	paymentHandler := handler.NewPaymentHandler(a.PaymentCommands, a.PaymentQueries)
	notificationHandler := handler.NewNotificationHandler(a.Scheduler.Feed(), a.Permission)

	requireAuth := middleware.AuthMiddleware(a.Tokens, a.SessionQueries)

	auth := router.Group("/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.POST("/refresh", requireAuth, authHandler.Refresh)
	}

	payments := router.Group("/v1/payments", requireAuth)
	{
		payments.GET("", paymentHandler.ListPayments)
		payments.GET("/summary", paymentHandler.Summary)
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:paymentId", paymentHandler.GetPayment)
		payments.PATCH("/:paymentId", paymentHandler.UpdatePayment)
		payments.DELETE("/:paymentId", paymentHandler.DeletePayment)
		payments.POST("/:paymentId/paid", paymentHandler.MarkAsPaid)
		payments.POST("/:paymentId/archive", paymentHandler.ArchivePayment)
	}

	notifications := router.Group("/v1/notifications", requireAuth)
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.POST("/read", notificationHandler.MarkAllRead)
		notifications.DELETE("", notificationHandler.ClearNotifications)
		notifications.GET("/permission", notificationHandler.GetPermission)
		notifications.PUT("/permission", notificationHandler.SetPermission)
	}

	return router
}
