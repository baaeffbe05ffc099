package relica

import (
	"database/sql"
	"errors"

	"github.com/coregx/livechat"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies every pending embedded migration for driverName.
//
// It opens its own connection from dsn and closes it when done. MySQL DSNs
// need multiStatements=true.
func Migrate(driverName, dsn string) error {
	m, err := newMigrator(driverName, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to apply migrations", err)
	}
	return nil
}

// Rollback reverts every applied migration.
func Rollback(driverName, dsn string) error {
	m, err := newMigrator(driverName, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to roll back migrations", err)
	}
	return nil
}

func newMigrator(driverName, dsn string) (*migrate.Migrate, error) {
	files, err := livechat.MigrationsFor(driverName)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeConfiguration, "failed to read embedded migrations", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "could not open db for migration", err)
	}

	var driver database.Driver
	switch driverName {
	case driverMySQL:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case driverPostgres:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	case driverSQLite:
		driver, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	}
	if err != nil {
		_ = db.Close()
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "could not create migrate driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		_ = driver.Close()
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "could not create migrate instance", err)
	}
	return m, nil
}
