package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditAction represents the type of gate action being audited
type AuditAction string

const (
	AuditActionCheckIn  AuditAction = "checkin"
	AuditActionRevert   AuditAction = "revert"
	AuditActionTrigger  AuditAction = "trigger"
	AuditActionEvaluate AuditAction = "evaluate"
	AuditActionOther    AuditAction = "other"
)

// Context keys for audit data
const (
	ContextKeyAuditResourceType = "audit_resource_type"
	ContextKeyAuditResourceID   = "audit_resource_id"
	ContextKeyAuditReasonCode   = "audit_reason_code"
	ContextKeyAuditMetadata     = "audit_metadata"
	contextKeyAuditSkip         = "audit_skip"
)

// AuditEntry represents a single audit log row
type AuditEntry struct {
	ID           string                 `json:"id"`
	OperatorID   *string                `json:"operator_id,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Action       AuditAction            `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   *string                `json:"resource_id,omitempty"`
	StatusCode   int                    `json:"status_code"`
	ReasonCode   string                 `json:"reason_code,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// DB is the PostgreSQL pool for audit rows. Nil disables persistence.
	DB *pgxpool.Pool
	// Logger receives flush failures and dropped entries
	Logger *zap.Logger
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries sent in one batch (default: 100)
	BatchSize int
	// SkipPaths is a list of path prefixes to skip auditing
	SkipPaths []string
	// SkipMethods is a list of HTTP methods to skip (default: GET, HEAD, OPTIONS)
	SkipMethods []string
	// ActionMapper maps HTTP method + path to an audit action
	ActionMapper func(method, path string) AuditAction
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(db *pgxpool.Pool) *AuditConfig {
	return &AuditConfig{
		DB:            db,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		BatchSize:     100,
		SkipPaths:     []string{"/health", "/ready"},
		SkipMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ActionMapper:  defaultActionMapper,
	}
}

// AuditLogger buffers audit entries and writes them asynchronously
type AuditLogger struct {
	config    *AuditConfig
	log       *zap.Logger
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once

	// sink replaces the database write, used by tests
	sinkMu sync.Mutex
	sink   func([]*AuditEntry)
}

// NewAuditLogger creates a new audit logger and starts its worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.ActionMapper == nil {
		config.ActionMapper = defaultActionMapper
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	al := &AuditLogger{
		config: config,
		log:    log,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer without blocking.
// Entries are dropped when the buffer is full.
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		al.log.Warn("audit buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("request_id", entry.RequestID),
		)
	}
}

// Close drains the buffer and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

// SetSink routes flushed batches to fn instead of the database
func (al *AuditLogger) SetSink(fn func([]*AuditEntry)) {
	al.sinkMu.Lock()
	defer al.sinkMu.Unlock()
	al.sink = fn
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, operator_id, role, action, resource_type, resource_id,
		status_code, reason_code, ip_address, user_agent, request_id,
		metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 {
		return
	}

	al.sinkMu.Lock()
	sink := al.sink
	al.sinkMu.Unlock()
	if sink != nil {
		sink(entries)
		return
	}

	if al.config.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, entry := range entries {
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil || string(metadata) == "null" {
			metadata = []byte("{}")
		}
		batch.Queue(insertAuditLog,
			entry.ID, entry.OperatorID, entry.Role, string(entry.Action), entry.ResourceType, entry.ResourceID,
			entry.StatusCode, entry.ReasonCode, entry.IPAddress, entry.UserAgent, entry.RequestID,
			metadata, entry.CreatedAt,
		)
	}

	results := al.config.DB.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			// Audit must never block the gate
			al.log.Error("failed to write audit entry", zap.Error(err))
		}
	}
}

// AuditMiddleware records one audit entry per mutating request
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := al.config

		for _, path := range config.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		startTime := time.Now()

		c.Next()

		if skip := c.GetBool(contextKeyAuditSkip); skip {
			return
		}

		entry := &AuditEntry{
			ID:         uuid.New().String(),
			Action:     config.ActionMapper(c.Request.Method, c.Request.URL.Path),
			StatusCode: c.Writer.Status(),
			IPAddress:  getClientIP(c),
			UserAgent:  c.GetHeader("User-Agent"),
			RequestID:  c.GetString(ContextKeyRequestID),
			CreatedAt:  startTime,
		}

		if operatorID, ok := GetOperatorID(c); ok && operatorID != "" {
			entry.OperatorID = &operatorID
		}
		if role, ok := GetRole(c); ok {
			entry.Role = role
		}

		entry.ResourceType = c.GetString(ContextKeyAuditResourceType)
		if rid := c.GetString(ContextKeyAuditResourceID); rid != "" {
			entry.ResourceID = &rid
		}
		entry.ReasonCode = c.GetString(ContextKeyAuditReasonCode)
		if meta, exists := c.Get(ContextKeyAuditMetadata); exists {
			if m, ok := meta.(map[string]interface{}); ok {
				entry.Metadata = m
			}
		}

		al.Log(entry)
	}
}

// defaultActionMapper maps a route to a gate action
func defaultActionMapper(method, path string) AuditAction {
	p := strings.ToLower(path)

	switch {
	case strings.HasSuffix(p, "/alerts/evaluate"):
		return AuditActionEvaluate
	case strings.HasSuffix(p, "/trigger"):
		return AuditActionTrigger
	case strings.Contains(p, "/checkin"):
		if method == http.MethodDelete {
			return AuditActionRevert
		}
		if method == http.MethodPost {
			return AuditActionCheckIn
		}
	}
	return AuditActionOther
}

// getClientIP extracts the client IP address
func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// SetAuditResource sets the resource type and id for the current request
func SetAuditResource(c *gin.Context, resourceType, resourceID string) {
	c.Set(ContextKeyAuditResourceType, resourceType)
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditReasonCode records the outcome reason for the current request
func SetAuditReasonCode(c *gin.Context, code string) {
	c.Set(ContextKeyAuditReasonCode, code)
}

// SetAuditMetadata sets additional metadata for audit logging
func SetAuditMetadata(c *gin.Context, metadata map[string]interface{}) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}
