package live

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
)

// ErrRoomClosed is returned on any operation against a closed room.
var ErrRoomClosed = errors.New("class room is closed")

type (
	// Message is a single live-class event (chat line, hand raise, join/leave notice).
	Message struct {
		ClassID    string       `json:"class_id"`
		SenderID   string       `json:"sender_id"`
		SenderName string       `json:"sender_name"`
		Role       session.Role `json:"role"`
		Kind       string       `json:"kind"` // chat | joined | left | hand-raise
		Text       string       `json:"text,omitempty"`
		SentAt     time.Time    `json:"sent_at"` // UTC
	}

	// Participant receives messages broadcast to the room. Implementations
	// must not block: Outbox is a buffered channel drained by the transport.
	Participant struct {
		ID     string
		Name   string
		Role   session.Role
		Outbox chan Message
	}

	// Room fans every message out to all joined participants. A single
	// goroutine owns the participant set; join/leave/broadcast go through
	// channels, so no locking happens on the message path.
	Room struct {
		ClassID string

		broadcast  chan Message
		register   chan *Participant
		unregister chan string // participant ID
		done       chan struct{}
		closeOnce  sync.Once
	}
)

// Message kinds
const (
	KindChat      = "chat"
	KindJoined    = "joined"
	KindLeft      = "left"
	KindHandRaise = "hand-raise"
)

const outboxSize = 64

func NewParticipant(id, name string, role session.Role) *Participant {
	return &Participant{
		ID:     id,
		Name:   name,
		Role:   role,
		Outbox: make(chan Message, outboxSize),
	}
}

func NewRoom(classID string) *Room {
	return &Room{
		ClassID:    classID,
		broadcast:  make(chan Message, 256), // buffer classroom message bursts
		register:   make(chan *Participant, 16),
		unregister: make(chan string, 16),
		done:       make(chan struct{}),
	}
}

// Run owns the room until ctx is cancelled or Close is called.
func (r *Room) Run(ctx context.Context) {
	participants := make(map[string]*Participant)

	defer func() {
		for _, p := range participants {
			close(p.Outbox)
		}
	}()

	for {
		select {
		case p := <-r.register:
			participants[p.ID] = p
			r.fanOut(participants, Message{
				ClassID: r.ClassID, SenderID: p.ID, SenderName: p.Name, Role: p.Role,
				Kind: KindJoined, SentAt: time.Now().UTC(),
			})

		case id := <-r.unregister:
			if p, ok := participants[id]; ok {
				delete(participants, id)
				close(p.Outbox)
				r.fanOut(participants, Message{
					ClassID: r.ClassID, SenderID: p.ID, SenderName: p.Name, Role: p.Role,
					Kind: KindLeft, SentAt: time.Now().UTC(),
				})
			}

		case msg := <-r.broadcast:
			r.fanOut(participants, msg)

		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// fanOut delivers msg to every participant; slow consumers are skipped
// rather than blocking the room.
func (r *Room) fanOut(participants map[string]*Participant, msg Message) {
	for _, p := range participants {
		select {
		case p.Outbox <- msg:
		default:
		}
	}
}

func (r *Room) Join(p *Participant) error {
	select {
	case r.register <- p:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Leave(participantID string) error {
	select {
	case r.unregister <- participantID:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Send(msg Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	msg.ClassID = r.ClassID
	select {
	case r.broadcast <- msg:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Registry hands out the Room for a class, creating and running it on
// first join.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	ctx   context.Context
}

func NewRegistry(ctx context.Context) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		ctx:   ctx,
	}
}

func (reg *Registry) Room(classID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[classID]
	if !ok {
		room = NewRoom(classID)
		reg.rooms[classID] = room
		go room.Run(reg.ctx)
	}
	return room
}

func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, room := range reg.rooms {
		room.Close()
	}
	reg.rooms = make(map[string]*Room)
}
