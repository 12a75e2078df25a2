package visits_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"tour-route-service/internal/adapters/repositories"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/ports"
	"tour-route-service/internal/services/proximity"
	"tour-route-service/internal/services/visits"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	arrivals []ports.ArrivalEvent
}

func (p *recordingPublisher) PublishArrival(_ context.Context, ev ports.ArrivalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.arrivals = append(p.arrivals, ev)
	return nil
}

func (p *recordingPublisher) PublishSnapshot(context.Context, ports.SnapshotEvent) error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arrivals)
}

func at(lat, lng float64) domain.Coordinate {
	return domain.Coordinate{Latitude: lat, Longitude: lng}
}

type fixture struct {
	svc     *visits.Service
	repo    *repositories.MemoryTourRepository
	pub     *recordingPublisher
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	repo := repositories.NewMemoryTourRepository()
	require.NoError(t, repo.SaveTour(t.Context(), &domain.Tour{
		ID:          "tour-1",
		Name:        "Old Town",
		Description: "Three stops",
		IsActive:    true,
		Route: domain.RouteSnapshot{POIs: []domain.POI{
			{ID: "a", Title: "A", Coordinate: at(0, 0)},
			{ID: "b", Title: "B", Coordinate: at(0, 0.001)},
			{ID: "c", Title: "C", Coordinate: at(0, 0.002)},
		}},
	}))
	require.NoError(t, repo.SaveTour(t.Context(), &domain.Tour{ID: "closed", Name: "x", Description: "y"}))

	past := time.Now().Add(-time.Hour)
	repo.PutQRCode(domain.QRCode{Code: "GOOD", TourID: "tour-1", IsActive: true})
	repo.PutQRCode(domain.QRCode{Code: "OFF", TourID: "tour-1", IsActive: false})
	repo.PutQRCode(domain.QRCode{Code: "OLD", TourID: "tour-1", IsActive: true, ExpiresAt: &past})
	repo.PutQRCode(domain.QRCode{Code: "CLOSED", TourID: "closed", IsActive: true})

	pub := &recordingPublisher{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := visits.NewService(repo, pub, 0, m, slog.Default())
	t.Cleanup(svc.Close)

	return fixture{svc: svc, repo: repo, pub: pub, metrics: m}
}

func revealedTitles(st visits.Status) []string {
	out := make([]string, 0, len(st.Revealed))
	for _, p := range st.Revealed {
		out = append(out, p.Title)
	}
	return out
}

func TestStartAndWalk(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	st, err := f.svc.Start(ctx, "GOOD")
	require.NoError(t, err)
	assert.Equal(t, "tour-1", st.TourID)
	assert.Equal(t, 3, st.TotalPOIs)
	assert.Empty(t, st.Revealed)
	assert.Equal(t, proximity.StateTracking, st.State)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ActiveVisits), 0)

	require.NoError(t, f.svc.Push(ctx, st.VisitID, at(0, 0.00001)))
	require.NoError(t, f.svc.Push(ctx, st.VisitID, at(0, 0.00201)))
	require.NoError(t, f.svc.Push(ctx, st.VisitID, at(0, 0)))

	assert.Eventually(t, func() bool {
		got, err := f.svc.Status(st.VisitID)
		return err == nil && len(got.Revealed) == 2 && f.pub.count() == 2
	}, time.Second, 10*time.Millisecond)

	got, err := f.svc.Status(st.VisitID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, revealedTitles(got))
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.Arrivals), 0)

	require.NoError(t, f.svc.Stop(st.VisitID))
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.ActiveVisits), 0)

	_, err = f.svc.Status(st.VisitID)
	require.ErrorIs(t, err, domain.ErrVisitNotFound)
	require.ErrorIs(t, f.svc.Push(ctx, st.VisitID, at(0, 0)), domain.ErrVisitNotFound)
	require.ErrorIs(t, f.svc.Stop(st.VisitID), domain.ErrVisitNotFound)
}

func TestLocationErrorPausesUntilNextFix(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	st, err := f.svc.Start(ctx, "GOOD")
	require.NoError(t, err)

	require.NoError(t, f.svc.Push(ctx, st.VisitID, at(0, 0)))
	require.NoError(t, f.svc.ReportLocationError(ctx, st.VisitID, "gps lost"))

	assert.Eventually(t, func() bool {
		got, _ := f.svc.Status(st.VisitID)
		return got.State == proximity.StatePaused
	}, time.Second, 10*time.Millisecond)

	got, err := f.svc.Status(st.VisitID)
	require.NoError(t, err)
	assert.Contains(t, got.Error, "gps lost")
	assert.Equal(t, []string{"A"}, revealedTitles(got))

	require.NoError(t, f.svc.Push(ctx, st.VisitID, at(0, 0.001)))

	assert.Eventually(t, func() bool {
		got, _ := f.svc.Status(st.VisitID)
		return got.State == proximity.StateTracking && len(got.Revealed) == 2
	}, time.Second, 10*time.Millisecond)

	got, err = f.svc.Status(st.VisitID)
	require.NoError(t, err)
	assert.Empty(t, got.Error)
	assert.Equal(t, []string{"A", "B"}, revealedTitles(got))
}

func TestStartRejectsUnusableCodes(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Start(ctx, "MISSING")
	require.ErrorIs(t, err, domain.ErrQRCodeNotFound)

	_, err = f.svc.Start(ctx, "OFF")
	require.ErrorIs(t, err, domain.ErrQRCodeInactive)

	_, err = f.svc.Start(ctx, "OLD")
	require.ErrorIs(t, err, domain.ErrQRCodeInactive)

	_, err = f.svc.Start(ctx, "CLOSED")
	require.ErrorIs(t, err, domain.ErrTourNotFound)

	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.ActiveVisits), 0)
}

func TestPushRejectsInvalidPosition(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.Start(t.Context(), "GOOD")
	require.NoError(t, err)

	err = f.svc.Push(t.Context(), st.VisitID, at(91, 0))
	require.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestVisitOutlivesStartContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(t.Context())
	st, err := f.svc.Start(ctx, "GOOD")
	require.NoError(t, err)
	cancel()

	require.NoError(t, f.svc.Push(t.Context(), st.VisitID, at(0, 0)))
	assert.Eventually(t, func() bool {
		got, _ := f.svc.Status(st.VisitID)
		return len(got.Revealed) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestReapIdleStopsAbandonedVisits(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	abandoned, err := f.svc.Start(ctx, "GOOD")
	require.NoError(t, err)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)

	active, err := f.svc.Start(ctx, "GOOD")
	require.NoError(t, err)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.ActiveVisits), 0)

	assert.Equal(t, 1, f.svc.ReapIdle(cutoff))

	_, err = f.svc.Status(abandoned.VisitID)
	require.ErrorIs(t, err, domain.ErrVisitNotFound)
	require.ErrorIs(t, f.svc.Push(ctx, abandoned.VisitID, at(0, 0)), domain.ErrVisitNotFound)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ActiveVisits), 0)

	// position updates count as activity
	cutoff = time.Now()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.svc.Push(ctx, active.VisitID, at(0, 0)))
	assert.Zero(t, f.svc.ReapIdle(cutoff))
}

func TestRunReaperStopsOnCancel(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(t.Context(), "GOOD")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		f.svc.RunReaper(ctx, time.Millisecond, 0)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ActiveVisits) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
