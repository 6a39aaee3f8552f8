package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCounters(t *testing.T) {
	m := New()

	m.Upload("thumbnail", OutcomeSuccess, 100)
	m.Upload("thumbnail", OutcomeSuccess, 50)
	m.Upload("thumbnail", OutcomeRejected, 999)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("thumbnail", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("thumbnail", OutcomeRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadBytes))

	m.ThumbnailRead(OutcomeHit)
	m.ThumbnailRead(OutcomeMiss)
	m.ThumbnailRead(OutcomeMiss)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.thumbnailReads.WithLabelValues(OutcomeMiss)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Upload("video", OutcomeSuccess, 10)
	m.ObserveRequest("POST /api/videos/{videoID}", "POST", "200", 20*time.Millisecond)
	m.RateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assets_uploads_total{class="video",outcome="success"} 1`)
	assert.Contains(t, string(body), "assets_http_request_duration_seconds_bucket")
	assert.Contains(t, string(body), "assets_rate_limited_total 1")
	assert.Contains(t, string(body), `assets_upload_bytes_count{class="video"} 1`)
}
