package routing

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tour-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestDoWithRetry(t *testing.T) {
	points := []domain.Coordinate{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 0.001}}

	t.Run("retries transient failures", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":111,"duration":80,"geometry":{"coordinates":[[0,0],[0.001,0]]}}]}`)
		}))
		defer srv.Close()

		o := NewOSRMProviderWithClient(srv.Client(), srv.URL, "", rate.NewLimiter(rate.Inf, 0), slog.Default())
		o.retryBackoff = time.Millisecond

		res, err := o.Route(t.Context(), points)
		require.NoError(t, err)
		assert.Equal(t, int32(3), hits.Load())
		assert.InDelta(t, 111.0, res.DistanceMeters, 0)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		o := NewOSRMProviderWithClient(srv.Client(), srv.URL, "", rate.NewLimiter(rate.Inf, 0), slog.Default())
		o.retryBackoff = time.Millisecond

		_, err := o.Route(t.Context(), points)
		require.ErrorIs(t, err, domain.ErrRouteComputationFailed)
		assert.Equal(t, int32(4), hits.Load())

		var he *httpStatusError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadGateway, he.Code)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		o := NewOSRMProviderWithClient(srv.Client(), srv.URL, "", rate.NewLimiter(rate.Inf, 0), slog.Default())

		_, err := o.Route(t.Context(), points)
		require.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestCoordinatePath(t *testing.T) {
	got := coordinatePath([]domain.Coordinate{{Latitude: 40.5, Longitude: -3.25}, {Latitude: 1, Longitude: 2}})
	assert.Equal(t, "-3.25,40.5;2,1", got)
}
