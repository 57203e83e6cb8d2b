package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// Event is one progress update broadcast to connected relay clients.
type Event struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
	Status  string `json:"status"`
	Time    string `json:"time"`
}

// Relay is an optional remote monitoring surface: it broadcasts every
// Sink invocation to connected websocket clients, gated by a bearer JWT
// presented on the upgrade request. Nothing in the core package depends
// on Relay; it exists purely to let an operator watch a long-running
// operation from outside the process.
type Relay struct {
	secret   []byte
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewRelay builds a Relay that authenticates upgrade requests with HMAC
// JWTs signed by secret.
func NewRelay(secret []byte) *Relay {
	return &Relay{
		secret:  secret,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP upgrades the connection after validating the "token" query
// parameter (or Authorization: Bearer header) as an HMAC JWT signed with
// the relay's secret.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if h := req.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
			token = h[len(prefix):]
		}
	}
	if !r.validToken(token) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.clients[conn] = struct{}{}
	r.mu.Unlock()

	go r.drainClient(conn)
}

// drainClient discards inbound client frames (this relay is
// broadcast-only) and removes the connection once it closes.
func (r *Relay) drainClient(conn *websocket.Conn) {
	defer func() {
		r.mu.Lock()
		delete(r.clients, conn)
		r.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *Relay) validToken(token string) bool {
	if token == "" {
		return false
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err == nil && parsed.Valid
}

// Sink returns a progress.Sink that broadcasts every call as an Event
// to all connected clients, and never requests cancellation itself.
func (r *Relay) Sink() Sink {
	return func(current, total uint64, status string) Control {
		r.broadcast(Event{Current: current, Total: total, Status: status, Time: time.Now().UTC().Format(time.RFC3339)})
		return Continue
	}
}

func (r *Relay) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(r.clients, conn)
		}
	}
}

// IssueToken mints an HMAC JWT valid for ttl, for a caller to hand to a
// remote dashboard that should be allowed to connect.
func IssueToken(secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
