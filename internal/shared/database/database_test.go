package database

import (
	"testing"

	"gorm.io/gorm/logger"
)

func TestOpen_EmptyURL(t *testing.T) {
	if _, err := Open("", logger.Silent); err == nil {
		t.Fatalf("expected error for empty connection string")
	}
}

func TestOpen_SQLiteSchemes(t *testing.T) {
	for _, dsn := range []string{"sqlite://file::memory:", "file::memory:?cache=shared"} {
		db, err := Open(dsn, logger.Silent)
		if err != nil {
			t.Fatalf("Open(%s): %v", dsn, err)
		}
		if name := db.Dialector.Name(); name != "sqlite" {
			t.Fatalf("Open(%s) dialector = %s, want sqlite", dsn, name)
		}
	}
}

func TestNewDB_Migrate(t *testing.T) {
	type probe struct {
		ID   uint
		Name string
	}

	db := NewDB("file:newdb_probe?mode=memory&cache=shared", "development")
	defer db.Close()

	if err := db.Migrate(&probe{}); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !db.GORM.Migrator().HasTable(&probe{}) {
		t.Fatalf("expected probe table to exist")
	}
}
