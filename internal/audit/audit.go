// Package audit records the mutations made through labdesk and tells open
// pages about them over the websocket hub.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"labdesk/internal/logging"
	"labdesk/internal/models"
	"labdesk/internal/websocket"
)

// Action constants.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionExport  = "export"
	ActionSubmit  = "submit"
	ActionSession = "session"
)

// Entry is one audit record to write.
type Entry struct {
	Username  string
	Action    string
	Module    string
	RecordID  string
	Summary   string
	IPAddress string
}

// Logger writes audit_log rows.
type Logger struct {
	db  *sql.DB
	hub *websocket.Hub
	log *zap.Logger
}

// New creates a Logger. hub and log may be nil.
func New(db *sql.DB, hub *websocket.Hub, log *zap.Logger) *Logger {
	return &Logger{db: db, hub: hub, log: logging.OrNop(log)}
}

// Record stores e and broadcasts the change. A failed insert is logged and
// does not fail the caller's request.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if e.Username == "" {
		e.Username = "system"
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO audit_log (username, action, module, record_id, summary, ip_address) VALUES (?, ?, ?, ?, ?, ?)",
		e.Username, e.Action, e.Module, e.RecordID, e.Summary, e.IPAddress)
	if err != nil {
		l.log.Error("audit log insert failed",
			zap.String("module", e.Module),
			zap.String("action", e.Action),
			zap.Error(err))
	}
	if l.hub != nil {
		l.hub.BroadcastChange(e.Module, e.Action, e.RecordID)
	}
}

// RecordRequest is Record with the username and client IP taken from r.
func (l *Logger) RecordRequest(r *http.Request, action, module, recordID, summary string) {
	l.Record(r.Context(), Entry{
		Username:  Username(r),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		Summary:   summary,
		IPAddress: GetClientIP(r),
	})
}

// Filter narrows List.
type Filter struct {
	Module string
	Action string
	Limit  int
}

// List returns entries newest first.
func (l *Logger) List(ctx context.Context, f Filter) ([]models.AuditEntry, error) {
	query := "SELECT id, username, action, module, record_id, COALESCE(summary,''), COALESCE(ip_address,''), created_at FROM audit_log WHERE 1=1"
	var args []any
	if f.Module != "" {
		query += " AND module = ?"
		args = append(args, f.Module)
	}
	if f.Action != "" {
		query += " AND action = ?"
		args = append(args, f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT %d", limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than retentionDays and returns how many went.
func (l *Logger) Prune(ctx context.Context, retentionDays int, now time.Time) (int64, error) {
	cutoff := now.UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02 15:04:05")
	result, err := l.db.ExecContext(ctx, "DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Username is the acting user as reported by the front end, or "system".
func Username(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get("X-Labdesk-User")); u != "" {
		return u
	}
	return "system"
}

// GetClientIP extracts the real client IP from the request (handles proxies).
func GetClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
