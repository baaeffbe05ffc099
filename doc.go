// Package livechat provides the real-time chat core of a buyer/seller marketplace:
// one-to-one rooms about a product listing, with persisted messages, read
// receipts and a lifecycle that ends when the trade is done.
//
// Works both as a library for embedding in your application AND as a standalone
// server (cmd/livechat-server) speaking STOMP over WebSocket plus a small REST API.
//
// # Features
//
//   - Connection gatekeeping: bearer authentication on CONNECT, room authorization on SUBSCRIBE
//   - Participant Registry: in-memory membership cache, write-through on positive answers only
//   - Message Dispatcher: validate, persist, then broadcast with a server id and server time
//   - Read receipts: mark everything up to a watermark, idempotently
//   - Room lifecycle: atomic creation with the first message, one-way OPEN to CLOSED
//   - Cursor-paginated history for backward scrolling
//   - One error enumeration with two projections (HTTP and connection protocol)
//   - Options Pattern for service construction
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Embedded Migrations for easy database setup
//
// # Quick Start
//
//	db, _ := sql.Open("sqlite3", "file:chat.db?_foreign_keys=on")
//	if err := relica.Migrate(db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//	repos := relica.NewRepositories(db, "sqlite3")
//
//	registry, _ := livechat.NewParticipantRegistry(
//	    livechat.WithRegistryRepository(repos.Participant),
//	)
//
//	dispatcher, _ := livechat.NewMessageDispatcher(
//	    livechat.WithRoomRepository(repos.Room),
//	    livechat.WithMessageRepository(repos.Message),
//	    livechat.WithUserRepository(repos.User),
//	    livechat.WithParticipantDirectory(registry),
//	    livechat.WithBroadcaster(broker),
//	    livechat.WithLogger(logger),
//	)
//
//	msg, err := dispatcher.SendMessage(ctx, livechat.SendMessageRequest{
//	    RoomID:   roomID,
//	    WriterID: identity.UserID(),
//	    Type:     "TEXT",
//	    Content:  "is this still available?",
//	})
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         Transport Layer             │
//	│  (realtime: STOMP over WebSocket,   │
//	│   REST API)                         │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│         Core Services               │
//	│  (Gatekeeper, Dispatcher, Tracker,  │
//	│   RoomLifecycleManager, History)    │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│       Relica Adapters               │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│    Database (MySQL/PostgreSQL/      │
//	│             SQLite)                 │
//	└─────────────────────────────────────┘
//
// # Frame Flow
//
//  1. CONNECT
//     Gatekeeper → bearer token → Identity attached to the connection
//
//  2. SUBSCRIBE /sub/chat/room/{id} or /sub/chat/room/{id}/system
//     Gatekeeper → ParticipantRegistry (cache, then storage)
//
//  3. SEND /pub/chat/message
//     MessageDispatcher → checks → persist → MESSAGE to /sub/chat/room/{id}
//
//  4. SEND /pub/chat/read
//     ReadReceiptTracker → checks → receipts → READ to /sub/chat/room/{id}
//
// Any failure becomes a single ERROR frame to the offending connection.
//
// # Delivery
//
// Messages are persisted before they are broadcast. Broadcast is best effort
// and in-process: there is no outbox, no retry and no fan-out across server
// instances.
//
// # Database Schema
//
//	chat_room          - Rooms with status and open guard
//	chat_participant   - (room, user, role) triples
//	chat_message       - Immutable messages, id-ordered
//	chat_message_read  - Read receipts, unique per (message, user)
//	users, products    - Read-only views owned by other services
package livechat
