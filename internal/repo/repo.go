// Package repo is the data-access layer over the single-file store.
package repo

import "gorm.io/gorm"

type GormRepo struct {
	DB *gorm.DB
}
