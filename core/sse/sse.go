// Package sse streams agent-collection changes to connected clients.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/xlog"
	"github.com/valyala/fasthttp"
)

type (
	// Listener defines the interface for the receiving end.
	Listener interface {
		ID() string
		Chan() chan Envelope
	}

	// Envelope is content that can be written to an event stream.
	Envelope interface {
		String() string
	}

	// Manager defines the interface for managing clients and broadcasting messages.
	Manager interface {
		Send(message Envelope)
		Handle(ctx *fiber.Ctx, cl Listener)
		Clients() []string
	}
)

type Client struct {
	id   string
	ch   chan Envelope
	once sync.Once
}

func NewClient(id string) Listener {
	return &Client{
		id: id,
		ch: make(chan Envelope, 50),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) Chan() chan Envelope { return c.ch }

func (c *Client) close() {
	c.once.Do(func() { close(c.ch) })
}

// Message is a single server-sent event.
type Message struct {
	Event string
	Time  time.Time
	Data  string
}

func NewMessage(data string) *Message {
	return &Message{
		Data: data,
		Time: time.Now(),
	}
}

// String renders the message in the text/event-stream format. Multi-line
// data is split over several data fields.
func (m *Message) String() string {
	sb := strings.Builder{}

	if m.Event != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", m.Event))
	}
	for _, line := range strings.Split(m.Data, "\n") {
		sb.WriteString(fmt.Sprintf("data: %s\n", line))
	}
	sb.WriteString("\n")

	return sb.String()
}

func (m *Message) WithEvent(event string) Envelope {
	m.Event = event
	return m
}

// AgentSummary is the dashboard view of an agent pushed on every change.
type AgentSummary struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Goal       string            `json:"goal"`
	Status     types.AgentStatus `json:"status"`
	Priority   types.Priority    `json:"priority"`
	Progress   int               `json:"progress"`
	Tasks      int               `json:"tasks"`
	Messages   int               `json:"messages"`
	IsDeleting bool              `json:"isDeleting,omitempty"`
}

// AgentsEvent is the name of the event carrying the agent collection.
const AgentsEvent = "agents"

// AgentsMessage summarizes the collection as an "agents" event.
func AgentsMessage(agents []types.Agent) Envelope {
	summaries := make([]AgentSummary, 0, len(agents))
	for _, a := range agents {
		summaries = append(summaries, AgentSummary{
			ID:         a.ID,
			Name:       a.Name,
			Goal:       a.Goal,
			Status:     a.Status,
			Priority:   a.Priority,
			Progress:   a.Progress,
			Tasks:      len(a.Tasks),
			Messages:   len(a.Chat),
			IsDeleting: a.IsDeleting,
		})
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		xlog.Error("Failed to encode agents event", "error", err)
		data = []byte("[]")
	}
	return NewMessage(string(data)).WithEvent(AgentsEvent)
}

// KeepAliveInterval is how often idle streams receive a comment line.
var KeepAliveInterval = 15 * time.Second

// broadcastManager fans messages out to every registered client.
type broadcastManager struct {
	sendMu         sync.Mutex
	clients        sync.Map
	broadcast      chan Envelope
	workerPoolSize int
	messageHistory *history
}

// NewManager starts workerPoolSize broadcasting workers. Newly connected
// clients receive the last historySize messages first. Only a single
// worker keeps messages in the order they were sent.
func NewManager(workerPoolSize, historySize int) Manager {
	manager := &broadcastManager{
		broadcast:      make(chan Envelope, 16),
		workerPoolSize: workerPoolSize,
		messageHistory: newHistory(historySize),
	}

	manager.startWorkers()

	return manager
}

// Send records the message in the history and queues it for broadcast in
// the same order.
func (manager *broadcastManager) Send(message Envelope) {
	manager.sendMu.Lock()
	defer manager.sendMu.Unlock()
	manager.messageHistory.Add(message)
	manager.broadcast <- message
}

// Handle registers the client and streams to it until it disconnects.
func (manager *broadcastManager) Handle(c *fiber.Ctx, cl Listener) {
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Cache-Control")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	// Registering first means a message sent meanwhile is at worst
	// written twice, never missed.
	manager.register(cl)
	backlog := manager.messageHistory.Snapshot()

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer manager.unregister(cl)

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		for _, msg := range backlog {
			fmt.Fprint(w, msg.String())
		}
		if err := w.Flush(); err != nil {
			return
		}

		keepAlive := time.NewTicker(KeepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case msg, ok := <-cl.Chan():
				if !ok {
					return
				}
				fmt.Fprint(w, msg.String())
			case <-keepAlive.C:
				// Comment lines keep proxies open and reveal dead clients.
				fmt.Fprint(w, ": ping\n\n")
			case <-ctx.Done():
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
}

func (manager *broadcastManager) Clients() []string {
	var clients []string
	manager.clients.Range(func(key, value any) bool {
		if id, ok := key.(string); ok {
			clients = append(clients, id)
		}
		return true
	})
	return clients
}

func (manager *broadcastManager) startWorkers() {
	for i := 0; i < manager.workerPoolSize; i++ {
		go func() {
			for message := range manager.broadcast {
				manager.clients.Range(func(key, value any) bool {
					client, ok := value.(Listener)
					if !ok {
						return true
					}
					select {
					case client.Chan() <- message:
					default:
						// Slow client: drop rather than block everyone else.
					}
					return true
				})
			}
		}()
	}
}

func (manager *broadcastManager) register(client Listener) {
	manager.clients.Store(client.ID(), client)
}

// unregister removes the client and closes its channel once.
func (manager *broadcastManager) unregister(client Listener) {
	manager.clients.Delete(client.ID())
	if c, ok := client.(*Client); ok {
		c.close()
	}
}

type history struct {
	mu       sync.Mutex
	messages []Envelope
	maxSize  int
}

func newHistory(maxSize int) *history {
	return &history{maxSize: maxSize}
}

func (h *history) Add(message Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxSize <= 0 {
		return
	}
	h.messages = append(h.messages, message)
	if len(h.messages) > h.maxSize {
		h.messages = h.messages[len(h.messages)-h.maxSize:]
	}
}

func (h *history) Snapshot() []Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Envelope{}, h.messages...)
}
