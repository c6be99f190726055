package testutil

import (
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zishang520/socket.io/v2/socket"
)

// Gateway is an in-process socket.io push gateway. It answers "token"
// requests with its current token and can push messages and token refresh
// events to connected clients.
type Gateway struct {
	// URL is the address clients dial, including the socket.io path.
	URL string

	io        *socket.Server
	connected chan struct{}

	mu            sync.Mutex
	token         string
	tokenRequests atomic.Int32
}

// NewGateway starts a gateway that hands out token. It is shut down when
// the test ends.
func NewGateway(t *testing.T, token string) *Gateway {
	t.Helper()

	g := &Gateway{
		io:        socket.NewServer(nil, nil),
		connected: make(chan struct{}, 16),
		token:     token,
	}

	g.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		client.On("token", func(args ...any) {
			g.tokenRequests.Add(1)
			if len(args) == 0 {
				return
			}
			if ack, ok := args[len(args)-1].(socket.Ack); ok {
				ack([]any{map[string]any{"token": g.Token()}}, nil)
			}
		})
		select {
		case g.connected <- struct{}{}:
		default:
		}
	})

	hs := httptest.NewServer(g.io.ServeHandler(nil))
	g.URL = hs.URL + "/socket.io/"

	t.Cleanup(func() {
		g.io.Close(nil)
		hs.Close()
	})
	return g
}

// Token returns the token the gateway currently hands out.
func (g *Gateway) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// TokenRequests returns how many token requests were answered so far.
func (g *Gateway) TokenRequests() int {
	return int(g.tokenRequests.Load())
}

// WaitConnected blocks until a client has joined the root namespace.
func (g *Gateway) WaitConnected(t *testing.T) {
	t.Helper()
	select {
	case <-g.connected:
	case <-time.After(5 * time.Second):
		t.Fatal("no client connected to the gateway")
	}
}

// SendMessage pushes a "message" event with payload to every client.
func (g *Gateway) SendMessage(payload any) {
	g.io.Emit("message", payload)
}

// RefreshToken swaps the token and tells every client to re-register.
func (g *Gateway) RefreshToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	g.io.Emit("token_refresh")
}
