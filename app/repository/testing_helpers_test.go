package repository

import (
	"testing"

	"gorm.io/gorm"

	"github.com/utnautiub/nuoi-buituantu/internal/pkg/testdb"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testdb.New(t)
}
