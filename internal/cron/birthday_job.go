package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/casadefe/iglesia-backend/internal/notificaciones"
	"github.com/casadefe/iglesia-backend/internal/personas"
	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/logger"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

const defaultBirthdayWindowDays = 7

// BirthdayJobParams configure the birthday notification job.
type BirthdayJobParams struct {
	Logger     *logger.Logger
	Personas   birthdayPersonasRepo
	Notifier   birthdayNotifier
	WindowDays int
}

type birthdayPersonasRepo interface {
	ListConFechaNacimiento(ctx context.Context, scope visibility.Scope) ([]models.Persona, error)
}

type birthdayNotifier interface {
	NotificarCumpleanos(ctx context.Context, req notificaciones.CumpleanosNotice) (bool, error)
}

// NewBirthdayJob builds the job that notifies each owner about personas whose
// birthday falls within the configured window.
func NewBirthdayJob(params BirthdayJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Personas == nil {
		return nil, fmt.Errorf("personas repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	windowDays := params.WindowDays
	if windowDays <= 0 {
		windowDays = defaultBirthdayWindowDays
	}
	return &birthdayJob{
		logg:       params.Logger,
		personas:   params.Personas,
		notifier:   params.Notifier,
		windowDays: windowDays,
		now:        time.Now,
	}, nil
}

type birthdayJob struct {
	logg       *logger.Logger
	personas   birthdayPersonasRepo
	notifier   birthdayNotifier
	windowDays int
	now        func() time.Time
}

func (j *birthdayJob) Name() string { return "birthday-notifications" }

func (j *birthdayJob) Run(ctx context.Context) error {
	today := j.now().UTC()

	// The job runs for every owner at once, so the scan is unrestricted.
	rows, err := j.personas.ListConFechaNacimiento(ctx, visibility.Scope{})
	if err != nil {
		return fmt.Errorf("list personas: %w", err)
	}

	var created int
	for i := range rows {
		persona := &rows[i]
		if persona.FechaNacimiento == nil {
			continue
		}

		dias, err := personas.DiasParaCumpleanos(persona.FechaNacimiento.Format("2006-01-02"), today)
		if err != nil {
			j.logg.Error(j.logg.WithField(ctx, "persona_id", persona.ID.String()), "invalid fecha_nacimiento", err)
			continue
		}
		if dias > j.windowDays {
			continue
		}

		ok, err := j.notifier.NotificarCumpleanos(ctx, notificaciones.CumpleanosNotice{
			UserID:    persona.UserID,
			PersonaID: persona.ID,
			Nombre:    persona.Nombres + " " + persona.Apellidos,
			Dias:      dias,
		})
		if err != nil {
			return fmt.Errorf("notify cumpleanos for persona %s: %w", persona.ID, err)
		}
		if ok {
			created++
		}
	}

	j.logg.Info(j.logg.WithField(ctx, "created", created), "birthday notifications delivered")
	return nil
}
