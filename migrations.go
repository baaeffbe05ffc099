package livechat

import (
	"embed"
	"io/fs"
)

// MigrationFiles contains all SQL migration files embedded in the binary,
// one directory per driver: migrations/mysql, migrations/postgres and
// migrations/sqlite3. File names follow the golang-migrate convention
// (NNNNNN_name.up.sql / NNNNNN_name.down.sql).
//
// adapters/relica.Migrate applies them with golang-migrate. To use another
// tool, take the driver's directory:
//
//	dir, err := livechat.MigrationsFor("postgres")
//	source, err := iofs.New(dir, ".")
//
//go:embed migrations
var MigrationFiles embed.FS

// MigrationsFor returns the migration directory of driver.
func MigrationsFor(driver string) (fs.FS, error) {
	switch driver {
	case "mysql", "postgres", "sqlite3":
	default:
		return nil, NewError(ErrCodeConfiguration, "unsupported database driver: "+driver)
	}
	return fs.Sub(MigrationFiles, "migrations/"+driver)
}
