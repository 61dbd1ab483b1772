package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casadefe/iglesia-backend/api/controllers"
	"github.com/casadefe/iglesia-backend/api/middleware"
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
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/logger"
	"github.com/casadefe/iglesia-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions sessionManager,
	authService auth.Service,
	personasService personas.Service,
	actividadesService actividades.Service,
	categoriasService categorias.Service,
	transaccionesService transacciones.Service,
	sedesService sedes.Service,
	usuariosService usuarios.Service,
	notificacionesService notificaciones.Service,
	reportesService reportes.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbClient, redisClient, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/personas", controllers.PersonaCreate(personasService, logg))
		r.Get("/personas", controllers.PersonaList(personasService, logg))
		r.Get("/personas/cumpleaneros", controllers.PersonaCumpleaneros(personasService, logg))
		r.Get("/personas/{personaId}", controllers.PersonaGet(personasService, logg))
		r.Put("/personas/{personaId}", controllers.PersonaUpdate(personasService, logg))
		r.Delete("/personas/{personaId}", controllers.PersonaDelete(personasService, logg))

		r.Post("/actividades", controllers.ActividadCreate(actividadesService, logg))
		r.Get("/actividades", controllers.ActividadList(actividadesService, logg))
		r.Get("/actividades/{actividadId}", controllers.ActividadGet(actividadesService, logg))
		r.Put("/actividades/{actividadId}", controllers.ActividadUpdate(actividadesService, logg))
		r.Delete("/actividades/{actividadId}", controllers.ActividadDelete(actividadesService, logg))
		r.Get("/actividades/{actividadId}/progreso", controllers.ActividadProgreso(actividadesService, logg))

		r.Post("/categorias", controllers.CategoriaCreate(categoriasService, logg))
		r.Get("/categorias", controllers.CategoriaList(categoriasService, logg))
		r.Get("/categorias/{categoriaId}", controllers.CategoriaGet(categoriasService, logg))
		r.Put("/categorias/{categoriaId}", controllers.CategoriaUpdate(categoriasService, logg))
		r.Delete("/categorias/{categoriaId}", controllers.CategoriaDelete(categoriasService, logg))

		r.Post("/transacciones", controllers.TransaccionCreate(transaccionesService, logg))
		r.Get("/transacciones", controllers.TransaccionList(transaccionesService, logg))
		r.Get("/transacciones/{transaccionId}", controllers.TransaccionGet(transaccionesService, logg))
		r.Put("/transacciones/{transaccionId}", controllers.TransaccionUpdate(transaccionesService, logg))
		r.Post("/transacciones/{transaccionId}/anular", controllers.TransaccionAnular(transaccionesService, logg))

		r.Get("/sedes", controllers.SedeList(sedesService, logg))
		r.Get("/sedes/{sedeId}", controllers.SedeGet(sedesService, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RolAdmin, logg))
			r.Post("/sedes", controllers.SedeCreate(sedesService, logg))
			r.Put("/sedes/{sedeId}", controllers.SedeUpdate(sedesService, logg))
			r.Delete("/sedes/{sedeId}", controllers.SedeDelete(sedesService, logg))
		})

		r.Get("/usuarios/me", controllers.UsuarioMe(usuariosService, logg))
		r.Put("/usuarios/me/password", controllers.UsuarioChangePassword(usuariosService, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RolAdmin, logg))
			r.Post("/usuarios", controllers.UsuarioCreate(usuariosService, logg))
			r.Get("/usuarios", controllers.UsuarioList(usuariosService, logg))
			r.Get("/usuarios/{usuarioId}", controllers.UsuarioGet(usuariosService, logg))
			r.Put("/usuarios/{usuarioId}", controllers.UsuarioUpdate(usuariosService, logg))
			r.Delete("/usuarios/{usuarioId}", controllers.UsuarioDelete(usuariosService, logg))
		})

		r.Get("/notificaciones", controllers.ListNotificaciones(notificacionesService, logg))
		r.Post("/notificaciones/{notificacionId}/read", controllers.MarkNotificacionRead(notificacionesService, logg))
		r.Post("/notificaciones/read-all", controllers.MarkAllNotificacionesRead(notificacionesService, logg))

		r.Route("/reportes", func(r chi.Router) {
			r.Get("/resumen", controllers.ReporteResumen(reportesService, logg))
			r.Get("/actividades", controllers.ReporteActividades(reportesService, logg))
			r.Get("/actividades/export", controllers.ReporteActividadesExport(reportesService, logg))
			r.Get("/transacciones/export", controllers.ReporteTransaccionesExport(reportesService, logg))
			r.Get("/transacciones/{transaccionId}/recibo", controllers.ReporteRecibo(reportesService, logg))
		})
	})

	return r
}
