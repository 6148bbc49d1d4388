package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectingSink gathers flushed audit entries
type collectingSink struct {
	mu      sync.Mutex
	entries []*AuditEntry
}

func (s *collectingSink) add(entries []*AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

func (s *collectingSink) all() []*AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func newTestAuditLogger(t *testing.T) (*AuditLogger, *collectingSink) {
	t.Helper()
	config := DefaultAuditConfig(nil)
	config.FlushInterval = 10 * time.Millisecond
	al := NewAuditLogger(config)
	sink := &collectingSink{}
	al.SetSink(sink.add)
	return al, sink
}

func TestDefaultActionMapper(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected AuditAction
	}{
		{"admit", http.MethodPost, "/api/v1/checkin", AuditActionCheckIn},
		{"revert", http.MethodDelete, "/api/v1/checkin/ABC123", AuditActionRevert},
		{"inspect is other", http.MethodGet, "/api/v1/checkin/ABC123", AuditActionOther},
		{"trigger alert", http.MethodPost, "/api/v1/alerts/a-1/trigger", AuditActionTrigger},
		{"evaluate alerts", http.MethodPost, "/api/v1/venues/v-1/alerts/evaluate", AuditActionEvaluate},
		{"unknown", http.MethodPost, "/api/v1/other", AuditActionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, defaultActionMapper(tt.method, tt.path))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "127.0.0.1:1234", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"remote addr without port", nil, "192.168.1.5", "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			c.Request.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(c))
		})
	}
}

func TestAuditMiddleware_RecordsCheckIn(t *testing.T) {
	al, sink := newTestAuditLogger(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(func(c *gin.Context) {
		c.Set(ContextKeyOperatorID, "op-7")
		c.Set(ContextKeyRole, "operator")
		c.Next()
	})
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/checkin", func(c *gin.Context) {
		SetAuditResource(c, "ticket", "ABC123")
		SetAuditReasonCode(c, "ALREADY_CHECKED_IN")
		SetAuditMetadata(c, map[string]interface{}{"session_id": "s-1"})
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkin", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set("User-Agent", "gate-scanner/2.1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, al.Close())

	entries := sink.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, AuditActionCheckIn, e.Action)
	require.NotNil(t, e.OperatorID)
	assert.Equal(t, "op-7", *e.OperatorID)
	assert.Equal(t, "operator", e.Role)
	assert.Equal(t, "ticket", e.ResourceType)
	require.NotNil(t, e.ResourceID)
	assert.Equal(t, "ABC123", *e.ResourceID)
	assert.Equal(t, http.StatusConflict, e.StatusCode)
	assert.Equal(t, "ALREADY_CHECKED_IN", e.ReasonCode)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "gate-scanner/2.1", e.UserAgent)
	assert.Equal(t, "s-1", e.Metadata["session_id"])
	assert.NotEmpty(t, e.ID)
}

func TestAuditMiddleware_SkipsReadsAndHealth(t *testing.T) {
	al, sink := newTestAuditLogger(t)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.GET("/api/v1/checkin/:code", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/checkin/ABC", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/health", nil))

	require.NoError(t, al.Close())
	assert.Empty(t, sink.all())
}

func TestAuditMiddleware_SkipAudit(t *testing.T) {
	al, sink := newTestAuditLogger(t)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/checkin", func(c *gin.Context) {
		SkipAudit(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/checkin", nil))

	require.NoError(t, al.Close())
	assert.Empty(t, sink.all())
}

func TestAuditLogger_BufferFull(t *testing.T) {
	config := DefaultAuditConfig(nil)
	config.BufferSize = 1
	config.FlushInterval = time.Hour
	config.BatchSize = 1
	al := NewAuditLogger(config)

	release := make(chan struct{})
	sink := &collectingSink{}
	al.SetSink(func(entries []*AuditEntry) {
		<-release
		sink.add(entries)
	})

	for i := 0; i < 50; i++ {
		al.Log(&AuditEntry{ID: "x", Action: AuditActionCheckIn})
	}
	close(release)
	require.NoError(t, al.Close())

	// at most one entry in flight plus one buffered
	got := len(sink.all())
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 2)
}

func TestAuditLogger_BatchFlush(t *testing.T) {
	config := DefaultAuditConfig(nil)
	config.BatchSize = 2
	config.FlushInterval = time.Hour
	al := NewAuditLogger(config)

	var mu sync.Mutex
	var sizes []int
	al.SetSink(func(entries []*AuditEntry) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, len(entries))
	})

	for i := 0; i < 5; i++ {
		al.Log(&AuditEntry{ID: "x"})
	}
	require.NoError(t, al.Close())

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, s := range sizes {
		assert.LessOrEqual(t, s, 2)
		total += s
	}
	assert.Equal(t, 5, total)
}

func TestAuditLogger_CloseIdempotent(t *testing.T) {
	al := NewAuditLogger(DefaultAuditConfig(nil))
	assert.NoError(t, al.Close())
	assert.NoError(t, al.Close())
}

func TestDefaultAuditConfig(t *testing.T) {
	config := DefaultAuditConfig(nil)

	assert.Nil(t, config.DB)
	assert.Equal(t, 1000, config.BufferSize)
	assert.Equal(t, 5*time.Second, config.FlushInterval)
	assert.Equal(t, 100, config.BatchSize)
	assert.Contains(t, config.SkipPaths, "/health")
	assert.Contains(t, config.SkipMethods, http.MethodGet)
	assert.NotNil(t, config.ActionMapper)
}
