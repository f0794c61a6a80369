package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

// Notification is a user-facing message about the outcome of an action.
type Notification struct {
	Wallet      string    `json:"wallet,omitempty"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Type        Type      `json:"type"`
	TxID        string    `json:"txid,omitempty"`
	At          time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Lister returns the most recent notifications for a wallet, newest first.
type Lister interface {
	Recent(ctx context.Context, wallet string, limit int) ([]Notification, error)
}

// Log writes notifications to a logrus logger.
type Log struct {
	Logger *logrus.Logger
}

func (l Log) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"wallet":      n.Wallet,
		"type":        n.Type,
		"description": n.Description,
		"txid":        n.TxID,
	})
	if n.Type == TypeError {
		entry.Warn(n.Message)
		return nil
	}
	entry.Info(n.Message)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps the last Capacity notifications in memory.
type Recorder struct {
	Capacity int

	mu    sync.Mutex
	items []Notification
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	return &Recorder{Capacity: capacity}
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if over := len(r.items) - r.Capacity; over > 0 {
		r.items = append([]Notification(nil), r.items[over:]...)
	}
	return nil
}

// Recent returns notifications newest first. An empty wallet matches all.
func (r *Recorder) Recent(_ context.Context, wallet string, limit int) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		if wallet != "" && r.items[i].Wallet != wallet {
			continue
		}
		out = append(out, r.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
