package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Message is one queue message.
type Message struct {
	ID   string
	Body []byte
}

// Queue delivers notification messages.
type Queue interface {
	// Receive returns the messages currently available, possibly none.
	Receive(ctx context.Context) ([]Message, error)

	// Delete removes a message once it has been handled.
	Delete(ctx context.Context, msg Message) error

	// Reject sets aside a message that can never be handled.
	Reject(ctx context.Context, msg Message) error
}

// deadDir is the spool subdirectory holding rejected messages.
const deadDir = "dead"

// Spool is a Queue backed by a directory of JSON message files, one message
// per file. Every pending file is returned on each receive, in filename order.
type Spool struct {
	dir string
}

// NewSpool creates a spool queue over dir, creating it if needed.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Receive implements Queue.
func (s *Spool) Receive(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool: %w", err)
	}

	var msgs []Message
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		body, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			// Deleted by a concurrent receiver.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read message %s: %w", e.Name(), err)
		}
		msgs = append(msgs, Message{ID: e.Name(), Body: body})
	}
	return msgs, nil
}

// Delete implements Queue.
func (s *Spool) Delete(_ context.Context, msg Message) error {
	if msg.ID != filepath.Base(msg.ID) {
		return fmt.Errorf("invalid message id %q", msg.ID)
	}
	err := os.Remove(filepath.Join(s.dir, msg.ID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete message %s: %w", msg.ID, err)
	}
	return nil
}

// Reject implements Queue by moving the message file into dead/.
func (s *Spool) Reject(_ context.Context, msg Message) error {
	if msg.ID != filepath.Base(msg.ID) {
		return fmt.Errorf("invalid message id %q", msg.ID)
	}
	dead := filepath.Join(s.dir, deadDir)
	if err := os.MkdirAll(dead, 0o755); err != nil {
		return fmt.Errorf("failed to create dead-letter directory: %w", err)
	}
	err := os.Rename(filepath.Join(s.dir, msg.ID), filepath.Join(dead, msg.ID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to reject message %s: %w", msg.ID, err)
	}
	return nil
}

// MemoryQueue is an in-memory Queue for tests.
type MemoryQueue struct {
	mu       sync.Mutex
	msgs     []Message
	dead     []Message
	seq      int
	receives int

	// ReceiveErr is returned by Receive when non-nil.
	ReceiveErr error
	// OnReceive is called at the start of every Receive with the call count.
	OnReceive func(n int)
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Send adds a message.
func (q *MemoryQueue) Send(body []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	q.msgs = append(q.msgs, Message{ID: fmt.Sprintf("m%d", q.seq), Body: body})
}

// Receive implements Queue.
func (q *MemoryQueue) Receive(ctx context.Context) ([]Message, error) {
	q.mu.Lock()
	q.receives++
	n := q.receives
	hook := q.OnReceive
	q.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.ReceiveErr != nil {
		return nil, q.ReceiveErr
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.msgs))
	copy(out, q.msgs)
	return out, nil
}

// Delete implements Queue.
func (q *MemoryQueue) Delete(_ context.Context, msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.msgs {
		if m.ID == msg.ID {
			q.msgs = append(q.msgs[:i], q.msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Reject implements Queue.
func (q *MemoryQueue) Reject(_ context.Context, msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.msgs {
		if m.ID == msg.ID {
			q.msgs = append(q.msgs[:i], q.msgs[i+1:]...)
			q.dead = append(q.dead, m)
			return nil
		}
	}
	return nil
}

// Rejected returns the number of rejected messages.
func (q *MemoryQueue) Rejected() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dead)
}

// Len returns the number of queued messages.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// Receives returns how many times Receive was called.
func (q *MemoryQueue) Receives() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.receives
}
