package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/pcs8/orientasi/internal/app"
	"github.com/pcs8/orientasi/internal/auth"
	"github.com/pcs8/orientasi/internal/directory"
	"github.com/pcs8/orientasi/internal/observability"
	"github.com/pcs8/orientasi/internal/planning"
	"github.com/pcs8/orientasi/internal/platform/db"
	"github.com/pcs8/orientasi/internal/rbac"
	"github.com/pcs8/orientasi/internal/roles"
	"github.com/pcs8/orientasi/internal/secrets"
	"github.com/pcs8/orientasi/internal/shared"
	"github.com/pcs8/orientasi/internal/token"
	"github.com/pcs8/orientasi/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := secrets.NewCodec(cfg.RSAPrivateKey)
	if err != nil {
		logger.Error("load rsa key", slog.Any("error", err))
		os.Exit(1)
	}

	validate := validator.New()
	audit := shared.NewAuditLogger(pool)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	revocation := auth.NewRevocationStore(redisClient)
	dirClient := directory.NewClient(directory.Config{
		URL:        cfg.LDAPURL,
		BaseDN:     cfg.LDAPBaseDN,
		Domain:     cfg.LDAPDomain,
		SkipVerify: cfg.LDAPSkipVerify,
	})

	userStore := users.NewStore(pool)
	roleStore := roles.NewStore(pool)
	planningStore := planning.NewStore(pool)

	roleService := roles.NewService(roleStore, logger, audit)
	userService := users.NewService(userStore, roleService, logger)
	authService := auth.NewService(codec, dirClient, userStore, roleService, tokens, revocation, logger, audit)
	rbsiService := planning.NewRbsiService(planningStore, logger, audit)
	programService := planning.NewProgramService(planningStore, logger, audit)
	initiativeService := planning.NewInitiativeService(planningStore, logger, audit)

	authz := rbac.Middleware{Verifier: tokens, Revoked: revocation, Logger: logger}
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       auth.NewHandler(authService, validate, logger),
		UsersHandler:      users.NewHandler(userService, logger),
		RolesHandler:      roles.NewHandler(roleService, validate, logger),
		PlanningHandler:   planning.NewHandler(rbsiService, programService, initiativeService, validate, logger),
		EncryptionHandler: secrets.NewHandler(codec, validate, logger),
		RBACMiddleware:    authz,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
