package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alertFixture struct {
	store     *repository.MemoryStore
	publisher *recordingPublisher
	clock     *fakeClock
	svc       AlertService
}

func newAlertFixture(t *testing.T) *alertFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	seedVenue(store)
	store.SetSeatCount("v-1", 92)

	f := &alertFixture{
		store:     store,
		publisher: &recordingPublisher{},
		clock:     newFakeClock(showStart),
	}
	f.svc = NewAlertService(&AlertServiceConfig{
		Alerts:     store.Alerts(),
		Venues:     store.Venues(),
		Validation: newValidationService(store),
		Publisher:  f.publisher,
		Clock:      f.clock,
	})
	return f
}

func TestEvaluate(t *testing.T) {
	f := newAlertFixture(t)
	low := 1
	f.store.AddProduct(domain.Product{ID: "p-1", VenueID: "v-1", Name: "Program", Stock: &low, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-cap-hit", VenueID: "v-1", Name: "Nearly full", Category: domain.AlertCategoryCapacity, Threshold: 90, IsActive: true, NotifyEmails: []string{"ops@example.com"}})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-cap-miss", VenueID: "v-1", Name: "Full", Category: domain.AlertCategoryCapacity, Threshold: 99, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-stock", VenueID: "v-1", Name: "Merch low", Category: domain.AlertCategoryStock, Threshold: 3, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-sched", VenueID: "v-1", Name: "Clash", Category: domain.AlertCategorySchedule, Threshold: 0, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-sales", VenueID: "v-1", Name: "Sales", Category: domain.AlertCategorySales, Threshold: 10, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-off", VenueID: "v-1", Name: "Disabled", Category: domain.AlertCategoryCapacity, Threshold: 1, IsActive: false})

	result, err := f.svc.Evaluate(context.Background(), "v-1")
	require.NoError(t, err)

	byID := map[string]bool{}
	skipped := map[string]bool{}
	for _, d := range result.Decisions {
		byID[d.AlertID] = d.Fired
		skipped[d.AlertID] = d.Skipped
	}

	assert.Len(t, result.Decisions, 5)
	assert.True(t, byID["a-cap-hit"])
	assert.False(t, byID["a-cap-miss"])
	assert.True(t, byID["a-stock"])
	assert.False(t, byID["a-sched"], "a single session cannot clash")
	assert.True(t, skipped["a-sales"])
	assert.Equal(t, 2, result.FiredCount)

	fired, _ := f.store.Alerts().GetByID(context.Background(), "a-cap-hit")
	require.NotNil(t, fired.LastTriggeredAt)
	assert.True(t, fired.LastTriggeredAt.Equal(showStart))

	quiet, _ := f.store.Alerts().GetByID(context.Background(), "a-cap-miss")
	assert.Nil(t, quiet.LastTriggeredAt)

	events := f.publisher.Alerts()
	require.Len(t, events, 2)
	for _, e := range events {
		assert.False(t, e.Manual)
		if e.AlertID == "a-cap-hit" {
			assert.Equal(t, 92.0, e.Observed)
			assert.Equal(t, []string{"ops@example.com"}, e.NotifyEmails)
		}
	}
}

func TestEvaluate_ScheduleConflict(t *testing.T) {
	f := newAlertFixture(t)
	f.store.AddSession(domain.Session{ID: "s-2", EventID: "e-1", StartTime: showStart.Add(time.Hour), EndTime: showStart.Add(3 * time.Hour)})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-sched", VenueID: "v-1", Category: domain.AlertCategorySchedule, Threshold: 1, IsActive: true})

	result, err := f.svc.Evaluate(context.Background(), "v-1")
	require.NoError(t, err)
	require.Len(t, result.Decisions, 1)
	assert.True(t, result.Decisions[0].Fired)
	assert.Equal(t, 1.0, result.Decisions[0].Observed)
}

func TestEvaluate_VenueNotFound(t *testing.T) {
	f := newAlertFixture(t)

	_, err := f.svc.Evaluate(context.Background(), "missing")
	requireCode(t, err, domain.CodeVenueNotFound)
}

func TestEvaluate_PublishFailureIsLogged(t *testing.T) {
	f := newAlertFixture(t)
	f.publisher.err = errors.New("broker down")
	f.store.AddAlert(domain.AlertDefinition{ID: "a-1", VenueID: "v-1", Category: domain.AlertCategoryCapacity, Threshold: 50, IsActive: true})

	result, err := f.svc.Evaluate(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.FiredCount)
}

// failingStockValidation fails every stock check and delegates the rest
type failingStockValidation struct {
	ValidationService
}

func (failingStockValidation) CheckStock(context.Context, string, int) (*dto.StockReport, error) {
	return nil, domain.StoreUnavailable(errors.New("connection reset"))
}

func TestEvaluate_ValidationFailureFiresNothing(t *testing.T) {
	f := newAlertFixture(t)
	f.svc = NewAlertService(&AlertServiceConfig{
		Alerts:     f.store.Alerts(),
		Venues:     f.store.Venues(),
		Validation: failingStockValidation{newValidationService(f.store)},
		Publisher:  f.publisher,
		Clock:      f.clock,
	})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-1", VenueID: "v-1", Name: "Nearly full", Category: domain.AlertCategoryCapacity, Threshold: 90, IsActive: true})
	f.store.AddAlert(domain.AlertDefinition{ID: "a-2", VenueID: "v-1", Name: "Merch low", Category: domain.AlertCategoryStock, Threshold: 3, IsActive: true})

	result, err := f.svc.Evaluate(context.Background(), "v-1")
	assert.Nil(t, result)
	ce := requireCode(t, err, domain.CodeStoreUnavailable)
	assert.Equal(t, domain.KindTransient, ce.Kind)

	capacity, _ := f.store.Alerts().GetByID(context.Background(), "a-1")
	assert.Nil(t, capacity.LastTriggeredAt, "no alert is stamped when evaluation fails")
	assert.Empty(t, f.publisher.Alerts())
}

func TestTrigger(t *testing.T) {
	f := newAlertFixture(t)
	f.store.AddAlert(domain.AlertDefinition{ID: "a-1", VenueID: "v-1", Name: "Manual", Category: domain.AlertCategoryStock, IsActive: true})

	result, err := f.svc.Trigger(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", result.AlertID)
	assert.True(t, result.TriggeredAt.Equal(showStart))

	events := f.publisher.Alerts()
	require.Len(t, events, 1)
	assert.True(t, events[0].Manual)

	_, err = f.svc.Trigger(context.Background(), "missing")
	ce := requireCode(t, err, domain.CodeAlertNotFound)
	assert.Equal(t, domain.KindNotFound, ce.Kind)
}
