// Package scheduler déclenche les tâches récurrentes du recouvrement: le
// passage quotidien de relances et le recalcul mensuel des pénalités. Un
// ticker vérifie périodiquement l'heure; le dédoublonnage s'appuie sur la
// dernière date d'exécution en mémoire, et les tâches elles-mêmes sont
// idempotentes côté base.
package scheduler

import (
	"context"
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// Scheduler orchestre les passages planifiés.
type Scheduler struct {
	escalation    *collections.EscalationUseCase
	log           *logger.Logger
	dailyHour     int
	checkInterval time.Duration

	lastDailyRun   time.Time
	lastMonthlyRun time.Time
}

// New construit le scheduler. dailyHour est l'heure locale (0-23) du passage
// quotidien de relances; les pénalités sont recalculées le 1er de chaque mois.
func New(escalation *collections.EscalationUseCase, log *logger.Logger, dailyHour int, checkInterval time.Duration) *Scheduler {
	if dailyHour < 0 || dailyHour > 23 {
		dailyHour = 8
	}
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	return &Scheduler{
		escalation:    escalation,
		log:           log,
		dailyHour:     dailyHour,
		checkInterval: checkInterval,
	}
}

// Run boucle jusqu'à annulation du contexte. À lancer dans une goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Int("heureRelances", s.dailyHour).Msg("scheduler démarré")

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler arrêté")
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick évalue les déclencheurs à l'instant donné.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if s.shouldRunDaily(now) {
		s.lastDailyRun = now
		n, err := s.escalation.RunAutomatic(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("passage quotidien de relances en erreur")
		} else {
			s.log.Info().Int("relancesEnvoyées", n).Msg("passage quotidien de relances exécuté")
		}
	}

	if s.shouldRunMonthly(now) {
		s.lastMonthlyRun = now
		s.escalation.ApplyMonthlyPenalties(ctx)
	}
}

// shouldRunDaily vrai à la première vérification de l'heure planifiée, au
// plus une fois par jour.
func (s *Scheduler) shouldRunDaily(now time.Time) bool {
	if now.Hour() != s.dailyHour {
		return false
	}
	return !sameDay(s.lastDailyRun, now)
}

// shouldRunMonthly vrai le 1er du mois à l'heure planifiée, au plus une fois
// par mois.
func (s *Scheduler) shouldRunMonthly(now time.Time) bool {
	if now.Day() != 1 || now.Hour() != s.dailyHour {
		return false
	}
	return s.lastMonthlyRun.IsZero() ||
		s.lastMonthlyRun.Month() != now.Month() ||
		s.lastMonthlyRun.Year() != now.Year()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
