package monitoring

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/services"
)

// RatingUpdater periodically recomputes the denormalized per-movie rating
// aggregates from the reviews table. The schedule is a cron spec so
// deployments can pick anything from every-few-minutes to nightly.
type RatingUpdater struct {
	movieSvc services.MovieServiceProvider
	spec     string
	cron     *cron.Cron
}

// NewRatingUpdater creates a new RatingUpdater.
func NewRatingUpdater(movieSvc services.MovieServiceProvider, spec string) *RatingUpdater {
	return &RatingUpdater{movieSvc: movieSvc, spec: spec}
}

// Start schedules the periodic refresh and runs one refresh immediately.
func (ru *RatingUpdater) Start() error {
	ru.cron = cron.New()
	if _, err := ru.cron.AddFunc(ru.spec, ru.refresh); err != nil {
		return err
	}

	log.Info().Str("spec", ru.spec).Msg("Starting rating aggregate updater")
	ru.refresh()
	ru.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for a running refresh to finish.
func (ru *RatingUpdater) Stop() {
	if ru.cron != nil {
		<-ru.cron.Stop().Done()
		log.Info().Msg("Stopped rating aggregate updater")
	}
}

func (ru *RatingUpdater) refresh() {
	if err := ru.movieSvc.RefreshRatingAggregates(); err != nil {
		log.Error().Err(err).Msg("RatingUpdater: failed to refresh aggregates")
	}
}
