package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/coregx/quill/internal/logger"
)

// AuditLevel selects which statements are audited.
type AuditLevel int

const (
	// AuditNone disables audit logging.
	AuditNone AuditLevel = iota
	// AuditWrites logs INSERT, UPDATE, DELETE and TRUNCATE.
	AuditWrites
	// AuditReads logs SELECT in addition to writes.
	AuditReads
	// AuditAll logs every statement, including EXPLAIN.
	AuditAll
)

// ParseAuditLevel converts none, writes, reads or all into an AuditLevel.
func ParseAuditLevel(s string) (AuditLevel, error) {
	switch s {
	case "", "none":
		return AuditNone, nil
	case "writes":
		return AuditWrites, nil
	case "reads":
		return AuditReads, nil
	case "all":
		return AuditAll, nil
	}
	return AuditNone, fmt.Errorf("unknown audit level %q", s)
}

// AuditEvent is one audited statement.
type AuditEvent struct {
	Timestamp    time.Time
	User         string
	ClientIP     string
	RequestID    string
	Operation    string
	Table        string
	SQL          string
	ParamsHash   string
	AffectedRows int64
	Success      bool
	Error        string
	Duration     time.Duration
}

// Auditor writes audit events to a logger. Bound values are never logged;
// only their SHA-256 hash is.
type Auditor struct {
	logger logger.Logger
	level  AuditLevel
	now    func() time.Time
}

// NewAuditor creates an auditor writing to l.
func NewAuditor(l logger.Logger, level AuditLevel) *Auditor {
	if l == nil {
		l = &logger.NoopLogger{}
	}
	return &Auditor{
		logger: l,
		level:  level,
		now:    time.Now,
	}
}

// LogOperation audits one executed statement.
func (a *Auditor) LogOperation(ctx context.Context, operation, table, query string, args []interface{}, rows int64, err error, duration time.Duration) {
	if !a.shouldLog(operation) {
		return
	}

	event := a.newEvent(ctx)
	event.Operation = operation
	event.Table = table
	event.SQL = query
	event.ParamsHash = HashParams(args)
	event.AffectedRows = rows
	event.Success = err == nil
	event.Duration = duration
	if err != nil {
		event.Error = err.Error()
	}

	log := a.logger.Info
	if !event.Success {
		log = a.logger.Warn
	}
	log("audit_event",
		"timestamp", event.Timestamp,
		"user", event.User,
		"client_ip", event.ClientIP,
		"request_id", event.RequestID,
		"operation", event.Operation,
		"table", event.Table,
		"affected_rows", event.AffectedRows,
		"sql", event.SQL,
		"params_hash", event.ParamsHash,
		"success", event.Success,
		"error", event.Error,
		"duration_ms", event.Duration.Milliseconds(),
	)
}

// LogSecurityEvent records a statement the validator rejected. It is logged
// whenever the auditor is enabled, whatever the statement kind.
func (a *Auditor) LogSecurityEvent(ctx context.Context, eventType, query string, err error) {
	if a.level == AuditNone {
		return
	}

	event := a.newEvent(ctx)
	a.logger.Warn("security_event",
		"event_type", eventType,
		"timestamp", event.Timestamp,
		"user", event.User,
		"client_ip", event.ClientIP,
		"request_id", event.RequestID,
		"sql", query,
		"error", err.Error(),
	)
}

func (a *Auditor) newEvent(ctx context.Context) AuditEvent {
	return AuditEvent{
		Timestamp: a.now().UTC(),
		User:      GetUser(ctx),
		ClientIP:  GetClientIP(ctx),
		RequestID: GetRequestID(ctx),
	}
}

func (a *Auditor) shouldLog(operation string) bool {
	switch a.level {
	case AuditWrites:
		return operation == "INSERT" || operation == "UPDATE" || operation == "DELETE" || operation == "TRUNCATE"
	case AuditReads:
		return operation != "EXPLAIN" && operation != "UNKNOWN"
	case AuditAll:
		return true
	default:
		return false
	}
}

// HashParams returns the hex SHA-256 of the bound values, or "" when there
// are none.
func HashParams(params []interface{}) string {
	if len(params) == 0 {
		return ""
	}

	h := sha256.New()
	for _, param := range params {
		_, _ = fmt.Fprintf(h, "%v\x00", param) // hash.Hash.Write never returns error
	}
	return hex.EncodeToString(h.Sum(nil))
}

type contextKey string

const (
	userKey      contextKey = "quill:user"
	clientIPKey  contextKey = "quill:client_ip"
	requestIDKey contextKey = "quill:request_id"
)

// WithUser attaches the acting user to ctx for audit events.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithClientIP attaches the client address to ctx for audit events.
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, clientIPKey, clientIP)
}

// WithRequestID attaches a request ID to ctx for audit events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetUser returns the user attached by WithUser.
func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// GetClientIP returns the address attached by WithClientIP.
func GetClientIP(ctx context.Context) string {
	clientIP, _ := ctx.Value(clientIPKey).(string)
	return clientIP
}

// GetRequestID returns the ID attached by WithRequestID.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
