package scheduler

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// ConceptMetaJobConfig holds the dependencies for ConceptMetaJob.
type ConceptMetaJobConfig struct {
	Log     zerolog.Logger
	Store   *store.Store
	Concept vendor.ConceptSource
}

// ConceptMetaJob runs once daily at 08:00: it diffs the vendor's current
// concept list against what is already stored, upserting every concept
// (cheap, idempotent) and replacing constituent memberships only for
// names that were not already stored; memberships of known names are
// not refreshed.
type ConceptMetaJob struct {
	log     zerolog.Logger
	store   *store.Store
	concept vendor.ConceptSource
}

// NewConceptMetaJob builds a ConceptMetaJob.
func NewConceptMetaJob(cfg ConceptMetaJobConfig) *ConceptMetaJob {
	return &ConceptMetaJob{
		log:     cfg.Log.With().Str("job", "concept_meta").Logger(),
		store:   cfg.Store,
		concept: cfg.Concept,
	}
}

// Name identifies this job to the scheduler.
func (j *ConceptMetaJob) Name() string { return "concept_meta" }

// Run diffs and refreshes the concept catalogue.
func (j *ConceptMetaJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	concepts, err := j.concept.Concepts(ctx)
	if err != nil {
		return err
	}

	existing, err := j.store.Concepts.ListActiveConcepts()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.ConceptName] = struct{}{}
	}

	var newCount int
	for _, c := range concepts {
		conceptID, err := j.store.Concepts.UpsertConcept(store.Concept{
			ConceptName: c.ConceptName, ConceptCode: c.ConceptCode, OriginSource: c.OriginSource, ActiveFlag: true,
		})
		if err != nil {
			j.log.Warn().Err(err).Str("concept", c.ConceptName).Msg("concept upsert failed")
			continue
		}

		if _, ok := known[c.ConceptName]; ok {
			continue
		}
		newCount++

		memberships := make([]store.ConceptMembership, 0, len(c.Members))
		for _, m := range c.Members {
			memberships = append(memberships, store.ConceptMembership{TickerCode: m.TickerCode, ConceptID: conceptID, Weight: m.Weight})
		}
		if err := j.store.Concepts.ReplaceMemberships(conceptID, memberships); err != nil {
			j.log.Warn().Err(err).Str("concept", c.ConceptName).Msg("membership replace failed")
		}
	}
	j.log.Info().Int("total", len(concepts)).Int("new", newCount).Msg("concept catalogue refreshed")
	return nil
}
