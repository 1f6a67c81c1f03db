// Package repository holds the gorm-backed persistence layer. Each
// repository translates storage errors into the domain sentinels its
// interface promises: gorm.ErrRecordNotFound becomes the aggregate's
// not-found error, duplicate-key violations on record numbers become
// domain.ErrDuplicateNumber so the caller can redraw the sequence.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

// isDuplicateKey relies on gorm's TranslateError being enabled on the
// session, which maps the postgres 23505 violation to ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func pageWindow(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}

func totalPages(count int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(count) / pageSize
	if int(count)%pageSize > 0 {
		pages++
	}
	return pages
}
