package mysql

import (
	"database/sql"
	"time"
)

// timePtr converts a scanned nullable column back to an optional timestamp.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
