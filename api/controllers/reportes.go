package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casadefe/iglesia-backend/api/middleware"
	"github.com/casadefe/iglesia-backend/api/responses"
	"github.com/casadefe/iglesia-backend/internal/reportes"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/logger"
)

// ReporteResumen returns income, expense and balance over a date range.
func ReporteResumen(svc reportes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reportes service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := reportes.RangoParams{
			Desde: strings.TrimSpace(r.URL.Query().Get("desde")),
			Hasta: strings.TrimSpace(r.URL.Query().Get("hasta")),
		}

		result, err := svc.ResumenFinanciero(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReporteActividades returns the fundraising progress of every actividad.
func ReporteActividades(svc reportes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reportes service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ProgresoActividades(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReporteTransaccionesExport streams the filtered movement list as a CSV or
// PDF attachment depending on the formato query.
func ReporteTransaccionesExport(svc reportes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reportes service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := exportParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formato := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("formato")))
		if formato == "" {
			formato = "csv"
		}

		stamp := time.Now().UTC().Format("20060102")
		switch formato {
		case "csv":
			data, err := svc.ExportTransaccionesCSV(r.Context(), actor, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			writeAttachment(w, data, "text/csv; charset=utf-8", fmt.Sprintf("transacciones_%s.csv", stamp))
		case "pdf":
			data, err := svc.TransaccionesPDF(r.Context(), actor, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			writeAttachment(w, data, "application/pdf", fmt.Sprintf("transacciones_%s.pdf", stamp))
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "formato must be csv or pdf"))
		}
	}
}

// ReporteRecibo streams the PDF receipt for a single movement.
func ReporteRecibo(svc reportes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reportes service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseUUIDParam(r, "transaccionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := svc.ReciboPDF(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeAttachment(w, data, "application/pdf", fmt.Sprintf("recibo_%s.pdf", id))
	}
}

// ReporteActividadesExport streams the actividad progress table as PDF.
func ReporteActividadesExport(svc reportes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reportes service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := svc.ActividadesPDF(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stamp := time.Now().UTC().Format("20060102")
		writeAttachment(w, data, "application/pdf", fmt.Sprintf("actividades_%s.pdf", stamp))
	}
}

func exportParamsFromQuery(r *http.Request) (reportes.ExportParams, error) {
	var params reportes.ExportParams

	if raw := strings.TrimSpace(r.URL.Query().Get("tipo")); raw != "" {
		tipo, err := enums.ParseTransactionType(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tipo value")
		}
		params.Tipo = &tipo
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("estado")); raw != "" {
		estado, err := enums.ParseTransactionStatus(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid estado value")
		}
		params.Estado = &estado
	}

	if id, ok, err := parseUUIDQuery(r, "categoria_id"); err != nil {
		return params, err
	} else if ok {
		params.CategoriaID = &id
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("desde")); raw != "" {
		params.Desde = &raw
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("hasta")); raw != "" {
		params.Hasta = &raw
	}

	return params, nil
}

func writeAttachment(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
