package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// FeedStats summarizes the public feed catalogue.
type FeedStats struct {
	Total      int        `json:"totalFeeds"`
	DogFeeds   int        `json:"dogFeeds"`
	CatFeeds   int        `json:"catFeeds"`
	BothFeeds  int        `json:"bothFeeds"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`

	EnergyMean    float64 `json:"energyMean"`
	EnergyMedian  float64 `json:"energyMedian"`
	ProteinMean   float64 `json:"proteinMean"`
	ProteinMedian float64 `json:"proteinMedian"`
}

// Stats computes FeedStats over the public feeds of the store.
func (s *Service) Stats(ctx context.Context) (*FeedStats, error) {
	feeds, err := s.store.PublicFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public feeds: %w", err)
	}
	return ComputeStats(feeds)
}

// ComputeStats computes FeedStats over feeds. An empty list yields zero stats.
func ComputeStats(feeds []StoredFeed) (*FeedStats, error) {
	out := &FeedStats{Total: len(feeds)}
	if len(feeds) == 0 {
		return out, nil
	}

	energy := make(stats.Float64Data, 0, len(feeds))
	protein := make(stats.Float64Data, 0, len(feeds))

	for _, f := range feeds {
		switch f.AnimalType {
		case AnimalDog:
			out.DogFeeds++
		case AnimalCat:
			out.CatFeeds++
		case AnimalBoth:
			out.BothFeeds++
		}

		if !f.UpdatedAt.IsZero() && (out.LastUpdate == nil || f.UpdatedAt.After(*out.LastUpdate)) {
			t := f.UpdatedAt
			out.LastUpdate = &t
		}

		// Feeds without an analysis would drag the averages to zero.
		if f.MetabolizableEnergy > 0 {
			energy = append(energy, f.MetabolizableEnergy)
		}
		if f.Protein > 0 {
			protein = append(protein, f.Protein)
		}
	}

	var err error
	if out.EnergyMean, out.EnergyMedian, err = meanMedian(energy); err != nil {
		return nil, fmt.Errorf("energy: %w", err)
	}
	if out.ProteinMean, out.ProteinMedian, err = meanMedian(protein); err != nil {
		return nil, fmt.Errorf("protein: %w", err)
	}
	return out, nil
}

func meanMedian(data stats.Float64Data) (float64, float64, error) {
	mean, err := stats.Mean(data)
	if errors.Is(err, stats.ErrEmptyInput) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return 0, 0, err
	}
	r, err := stats.Round(mean, 2)
	if err != nil {
		return 0, 0, err
	}
	return r, median, nil
}
