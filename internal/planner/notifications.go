package planner

import (
	"time"

	"github.com/bwise1/trip_planner/internal/model"
	"github.com/google/uuid"
)

const (
	MsgNoRoutes     = "No routes found"
	MsgFetchFailure = "Failed to fetch itineraries"
)

// NotificationQueue is the ordered list of visible notifications.
type NotificationQueue struct {
	items []model.Notification
	now   func() time.Time
}

func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{now: time.Now}
}

func (q *NotificationQueue) Push(kind model.NotificationKind, message string) model.Notification {
	n := model.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: q.now(),
	}
	q.items = append(q.items, n)
	return n
}

// Dismiss reports whether a notification with id was still visible.
func (q *NotificationQueue) Dismiss(id string) bool {
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *NotificationQueue) List() []model.Notification {
	out := make([]model.Notification, len(q.items))
	copy(out, q.items)
	return out
}

func (q *NotificationQueue) Len() int {
	return len(q.items)
}
