package client

import (
	"time"

	"github.com/rpggio/gmboard/internal/domain/mutation"
)

// NotificationKind classifies a user-facing notification.
type NotificationKind string

const (
	// KindSyncFailure means a local change was rejected or never reached
	// the server and has been rolled back.
	KindSyncFailure NotificationKind = "sync_failure"
)

// Notification is surfaced to the user.
type Notification struct {
	ID          string            `json:"id"`
	Kind        NotificationKind  `json:"kind"`
	CampaignID  int64             `json:"campaign_id"`
	CharacterID int64             `json:"character_id"`
	Mutation    mutation.Mutation `json:"mutation"`
	Message     string            `json:"message"`
	Err         error             `json:"-"`
	At          time.Time         `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ChannelNotifier delivers notifications on a channel and drops them when
// nobody is reading.
type ChannelNotifier chan Notification

func (c ChannelNotifier) Notify(n Notification) {
	select {
	case c <- n:
	default:
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
