package notify

import (
	"log/slog"
)

// NotificationType represents who a notification is meant for.
type NotificationType string

const (
	NotifyAdmin    NotificationType = "admin"
	NotifyPatient  NotificationType = "patient"
	NotifyFacility NotificationType = "facility"
)

// Event names a case transition worth telling someone about.
type Event string

const (
	EventCaseVerified    Event = "case_verified"
	EventCaseRejected    Event = "case_rejected"
	EventCaseFullyFunded Event = "case_fully_funded"
	EventFundsReleased   Event = "funds_released"
)

// Notification holds the data for a notification event
type Notification struct {
	Event     Event
	CaseID    string
	Type      NotificationType
	Recipient string // identity of the recipient
	Reason    string
	Seq       uint64 // ledger sequence of the commit that caused it
}

// Notifier delivers notifications. Delivery channels live outside the engine.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (l *LogNotifier) Notify(n Notification) {
	l.logger.Info("notification",
		"event", string(n.Event),
		"case_id", n.CaseID,
		"type", string(n.Type),
		"recipient", n.Recipient,
		"reason", n.Reason,
		"seq", n.Seq,
	)
}

// Fanout delivers to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(n Notification) {
	for _, nt := range f {
		if nt != nil {
			nt.Notify(n)
		}
	}
}
