package auditware

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the stored user row, keyed by the provider identifier. Non-key
// columns are overwritten unconditionally on every upsert (last-write-wins).
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             string   `bun:"id,pk" json:"id"`
	Name           string   `bun:"name,notnull" json:"name"`
	Email          string   `bun:"email,notnull" json:"email"`
	Roles          []string `bun:"roles" json:"roles"`
	Department     string   `bun:"department,nullzero" json:"department,omitempty"`
	DepartmentTree []string `bun:"department_tree,nullzero" json:"department_tree,omitempty"`
}

func newUserRecord(identity *Identity) *User {
	return &User{
		ID:             identity.ID,
		Name:           identity.Name,
		Email:          identity.Email,
		Roles:          identity.Roles,
		Department:     identity.Department,
		DepartmentTree: identity.DepartmentTree,
	}
}

// AccessLog is one append-only audit row. Never read back by this package.
type AccessLog struct {
	bun.BaseModel `bun:"table:access_logs,alias:alg"`

	Time     time.Time `bun:"time,notnull" json:"time"`
	UserID   string    `bun:"user_id,notnull" json:"user_id"`
	Method   string    `bun:"request_method,notnull" json:"request_method"`
	Path     string    `bun:"path,notnull" json:"path"`
	Response int       `bun:"response,notnull" json:"response"`
}

// AccessLogEntry is the value object handed to the store gateway. Time is
// captured at request start, not at write time.
type AccessLogEntry struct {
	Time   time.Time
	UserID string
	Method string
	Path   string
	Status int
}

func newAccessLogRecord(entry *AccessLogEntry) *AccessLog {
	return &AccessLog{
		Time:     entry.Time.UTC(),
		UserID:   entry.UserID,
		Method:   entry.Method,
		Path:     entry.Path,
		Response: entry.Status,
	}
}
