package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"cartscope/internal"
)

const (
	MsgRequestCart     = "REQUEST_CART"
	MsgCartExtracted   = "CART_EXTRACTED"
	MsgRemoveCartItems = "REMOVE_CART_ITEMS"
)

type Message struct {
	Type        string                 `json:"type"`
	Identifiers []string               `json:"identifiers"`
	Names       []string               `json:"names"`
	Items       []internal.RemovalItem `json:"items,omitempty"`
	Reload      bool                   `json:"reload,omitempty"`
}

// Handler is the only point of contact with the external popup collaborator.
// Each connection is read by one goroutine that dispatches messages serially,
// so there is at most one in-flight handler per connection.
type Handler struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex

	extract func() (internal.ExtractResult, error)
	remove  func(internal.RemovalRequest) error
}

func NewHandler(extract func() (internal.ExtractResult, error), remove func(internal.RemovalRequest) error) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[*websocket.Conn]*sync.Mutex{},
		extract: extract,
		remove:  remove,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("bridge: upgrade failed: %v\n", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		h.dispatch(conn, msg)
	}
}

func (h *Handler) dispatch(conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case MsgRequestCart:
		result, err := h.extract()
		if err != nil {
			fmt.Printf("bridge: extraction failed: %v\n", err)
			result = internal.ExtractResult{}
		}
		reply := extractedMessage(result)
		h.send(conn, reply)
		h.Broadcast(reply)
	case MsgRemoveCartItems:
		req := internal.RemovalRequest{Items: msg.Items, Reload: msg.Reload}
		if err := h.remove(req); err != nil {
			fmt.Printf("bridge: removal failed: %v\n", err)
		}
	}
}

// PushExtracted broadcasts an extraction result to every connected client.
// Used for the initial on-attach run; empty results are not pushed.
func (h *Handler) PushExtracted(result internal.ExtractResult) {
	if result.Empty() {
		return
	}
	h.Broadcast(extractedMessage(result))
}

// extractedMessage builds a CART_EXTRACTED payload. Both keys are always
// present on the wire, even for an empty cart.
func extractedMessage(result internal.ExtractResult) Message {
	msg := Message{Type: MsgCartExtracted, Identifiers: result.Identifiers, Names: result.Names}
	if msg.Identifiers == nil {
		msg.Identifiers = []string{}
	}
	if msg.Names == nil {
		msg.Names = []string{}
	}
	return msg
}

func (h *Handler) Broadcast(msg Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.send(conn, msg)
	}
}

func (h *Handler) send(conn *websocket.Conn, msg Message) {
	h.mu.RLock()
	writeMu := h.clients[conn]
	h.mu.RUnlock()
	if writeMu == nil {
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		fmt.Printf("bridge: write failed: %v\n", err)
	}
}
