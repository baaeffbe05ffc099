// Package relica provides repository implementations using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// This package provides production-ready implementations of all livechat repository interfaces:
//   - RoomRepository
//   - ParticipantRepository
//   - MessageRepository
//   - MessageReadRepository
//   - UserRepository
//   - ProductRepository
//   - RoomStore (transactional room creation)
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/livechat"
//	    "github.com/coregx/livechat/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	// Apply the embedded schema
//	dsn := "user:pass@tcp(localhost:3306)/livechat?parseTime=true&multiStatements=true"
//	if err := relica.Migrate("mysql", dsn); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Open database connection
//	db, err := sql.Open("mysql", dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create repositories (driverName should be "mysql", "postgres", or "sqlite3")
//	repos := relica.NewRepositories(db, "mysql")
//
//	registry, err := livechat.NewParticipantRegistry(
//	    livechat.WithRegistryRepository(repos.Participant),
//	)
package relica
