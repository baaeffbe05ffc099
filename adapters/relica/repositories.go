package relica

import (
	"database/sql"

	"github.com/coregx/livechat"
)

// DefaultTablePrefix prefixes the tables owned by the chat core.
// users and products are shared with other services and never prefixed.
const DefaultTablePrefix = "chat_"

// Repositories holds all repository implementations.
type Repositories struct {
	Room        livechat.RoomRepository
	Participant livechat.ParticipantRepository
	Message     livechat.MessageRepository
	MessageRead livechat.MessageReadRepository
	User        livechat.UserRepository
	Product     livechat.ProductRepository
	Store       livechat.RoomStore
}

// NewRepositories creates all repository implementations using Relica.
//
// The db parameter should be an *sql.DB connected to MySQL, PostgreSQL, or SQLite.
// The driverName should be "mysql", "postgres", or "sqlite3".
// The table prefix defaults to "chat_" but can be customized.
func NewRepositories(db *sql.DB, driverName string) *Repositories {
	return NewRepositoriesWithPrefix(db, driverName, DefaultTablePrefix)
}

// NewRepositoriesWithPrefix creates all repository implementations with a custom table prefix.
func NewRepositoriesWithPrefix(db *sql.DB, driverName, prefix string) *Repositories {
	return &Repositories{
		Room:        NewRoomRepositoryWithPrefix(db, driverName, prefix),
		Participant: NewParticipantRepositoryWithPrefix(db, driverName, prefix),
		Message:     NewMessageRepositoryWithPrefix(db, driverName, prefix),
		MessageRead: NewMessageReadRepositoryWithPrefix(db, driverName, prefix),
		User:        NewUserRepository(db, driverName),
		Product:     NewProductRepository(db, driverName),
		Store:       NewRoomStoreWithPrefix(db, driverName, prefix),
	}
}
