// Package realtime carries the chat protocol over WebSocket.
//
// Each WebSocket text message holds one STOMP 1.2 frame. Clients CONNECT with
// an Authorization header, SUBSCRIBE to /sub/chat/room/{id} and
// /sub/chat/room/{id}/system, and SEND to /pub/chat/message or
// /pub/chat/read. Every inbound frame passes the livechat.Gatekeeper first;
// rejected frames are answered with a single ERROR frame whose body is the
// JSON error envelope.
//
// Broker is the in-process livechat.Broadcaster. It fans events out to the
// sessions subscribed on this process only.
package realtime
