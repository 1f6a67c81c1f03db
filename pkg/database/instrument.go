package database

import (
	"fmt"
	"time"

	"github.com/clinova/praxis/pkg/metrics"
	"gorm.io/gorm"
)

const startTimeKey = "praxis:query_start"

// Instrument times every statement through gorm callbacks and samples
// the connection pool gauge until done closes. Call once after Connect.
func Instrument(db *gorm.DB, collector *metrics.Collector, done <-chan struct{}) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			collector.DBQueryDuration.
				WithLabelValues(operation, tx.Statement.Table).
				Observe(time.Since(start).Seconds())
		}
	}

	register := []struct {
		name string
		err  error
	}{
		{"create", db.Callback().Create().Before("gorm:create").Register("praxis:before_create", before)},
		{"create", db.Callback().Create().After("gorm:create").Register("praxis:after_create", after("create"))},
		{"query", db.Callback().Query().Before("gorm:query").Register("praxis:before_query", before)},
		{"query", db.Callback().Query().After("gorm:query").Register("praxis:after_query", after("query"))},
		{"update", db.Callback().Update().Before("gorm:update").Register("praxis:before_update", before)},
		{"update", db.Callback().Update().After("gorm:update").Register("praxis:after_update", after("update"))},
		{"delete", db.Callback().Delete().Before("gorm:delete").Register("praxis:before_delete", before)},
		{"delete", db.Callback().Delete().After("gorm:delete").Register("praxis:after_delete", after("delete"))},
		{"raw", db.Callback().Raw().Before("gorm:raw").Register("praxis:before_raw", before)},
		{"raw", db.Callback().Raw().After("gorm:raw").Register("praxis:after_raw", after("raw"))},
		{"row", db.Callback().Row().Before("gorm:row").Register("praxis:before_row", before)},
		{"row", db.Callback().Row().After("gorm:row").Register("praxis:after_row", after("row"))},
	}
	for _, r := range register {
		if r.err != nil {
			return fmt.Errorf("registering %s callback: %w", r.name, r.err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			case <-done:
				return
			}
		}
	}()

	return nil
}
