package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	feeds := []StoredFeed{
		{FeedRecord: FeedRecord{Name: "A", AnimalType: AnimalDog, MetabolizableEnergy: 3000, Protein: 20}, UpdatedAt: older},
		{FeedRecord: FeedRecord{Name: "B", AnimalType: AnimalDog, MetabolizableEnergy: 4000, Protein: 30}, UpdatedAt: newer},
		{FeedRecord: FeedRecord{Name: "C", AnimalType: AnimalCat, MetabolizableEnergy: 3500, Protein: 40}},
		{FeedRecord: FeedRecord{Name: "D", AnimalType: AnimalBoth}},
	}

	got, err := ComputeStats(feeds)
	require.NoError(t, err)

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.DogFeeds)
	assert.Equal(t, 1, got.CatFeeds)
	assert.Equal(t, 1, got.BothFeeds)
	require.NotNil(t, got.LastUpdate)
	assert.True(t, got.LastUpdate.Equal(newer))

	// D has no analysis and is left out of the averages.
	assert.Equal(t, 3500.0, got.EnergyMean)
	assert.Equal(t, 3500.0, got.EnergyMedian)
	assert.Equal(t, 30.0, got.ProteinMean)
	assert.Equal(t, 30.0, got.ProteinMedian)
}

func TestComputeStats_Empty(t *testing.T) {
	got, err := ComputeStats(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, got.Total)
	assert.Nil(t, got.LastUpdate)
	assert.Zero(t, got.EnergyMean)
}

func TestService_Stats(t *testing.T) {
	store := newMemStore()
	store.addUserFeed("private", "user-1")
	svc := newTestService(t, store)

	_, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{})
	require.NoError(t, err)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, got.DogFeeds)
	assert.Equal(t, 27.5, got.ProteinMean)
}
