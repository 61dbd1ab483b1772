package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/casadefe/iglesia-backend/api/routes"
	"github.com/casadefe/iglesia-backend/internal/actividades"
	"github.com/casadefe/iglesia-backend/internal/auth"
	"github.com/casadefe/iglesia-backend/internal/categorias"
	"github.com/casadefe/iglesia-backend/internal/notificaciones"
	"github.com/casadefe/iglesia-backend/internal/personas"
	"github.com/casadefe/iglesia-backend/internal/reportes"
	"github.com/casadefe/iglesia-backend/internal/sedes"
	"github.com/casadefe/iglesia-backend/internal/transacciones"
	"github.com/casadefe/iglesia-backend/internal/usuarios"
	"github.com/casadefe/iglesia-backend/pkg/auth/session"
	"github.com/casadefe/iglesia-backend/pkg/config"
	"github.com/casadefe/iglesia-backend/pkg/db"
	"github.com/casadefe/iglesia-backend/pkg/logger"
	"github.com/casadefe/iglesia-backend/pkg/migrate"
	"github.com/casadefe/iglesia-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usuariosRepo := usuarios.NewRepository(dbClient.DB())
	personasRepo := personas.NewRepository(dbClient.DB())
	actividadesRepo := actividades.NewRepository(dbClient.DB())
	categoriasRepo := categorias.NewRepository(dbClient.DB())
	transaccionesRepo := transacciones.NewRepository(dbClient)
	sedesRepo := sedes.NewRepository(dbClient.DB())
	notificacionesRepo := notificaciones.NewRepository(dbClient.DB())
	reportesRepo := reportes.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usuariosRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnError(logg, "auth service", err)

	usuariosService, err := usuarios.NewService(usuariosRepo, cfg.Password)
	exitOnError(logg, "usuarios service", err)

	personasService, err := personas.NewService(personasRepo)
	exitOnError(logg, "personas service", err)

	actividadesService, err := actividades.NewService(actividadesRepo)
	exitOnError(logg, "actividades service", err)

	categoriasService, err := categorias.NewService(categoriasRepo)
	exitOnError(logg, "categorias service", err)

	transaccionesService, err := transacciones.NewService(transaccionesRepo, categoriasRepo, actividadesRepo, personasRepo)
	exitOnError(logg, "transacciones service", err)

	sedesService, err := sedes.NewService(sedesRepo)
	exitOnError(logg, "sedes service", err)

	notificacionesService, err := notificaciones.NewService(notificacionesRepo)
	exitOnError(logg, "notificaciones service", err)

	reportesService, err := reportes.NewService(reportesRepo)
	exitOnError(logg, "reportes service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			personasService,
			actividadesService,
			categoriasService,
			transaccionesService,
			sedesService,
			usuariosService,
			notificacionesService,
			reportesService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server stopped")
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	ctx := logg.WithField(context.Background(), "component", what)
	logg.Error(ctx, "failed to create component", err)
	os.Exit(1)
}
