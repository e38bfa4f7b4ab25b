package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const dbStartKey = "observability:start"

// InstrumentGORM records duration and errors of every statement db runs.
func (p *Prom) InstrumentGORM(db *gorm.DB) error {
	cb := db.Callback()
	type registrar struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}
	regs := []registrar{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, r := range regs {
		op := r.op
		if err := r.before("observability:before_"+op, func(tx *gorm.DB) {
			tx.InstanceSet(dbStartKey, time.Now())
		}); err != nil {
			return err
		}
		if err := r.after("observability:after_"+op, func(tx *gorm.DB) {
			p.observeStatement(op, tx)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prom) observeStatement(op string, tx *gorm.DB) {
	v, ok := tx.InstanceGet(dbStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}

	status := "ok"
	if err := tx.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	p.DbQueryDuration.WithLabelValues(op, table, status).Observe(time.Since(start).Seconds())
}

func classifyDBErr(err error) string {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "unique_violation"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return "foreign_key_violation"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint"):
		return "unique_violation"
	case strings.Contains(msg, "deadlock"):
		return "deadlock"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
