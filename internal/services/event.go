package services

import "github.com/HelieAriane/Clanimo/internal/models"

// Event describes a notification-worthy domain transition. State-machine
// methods return it alongside their result instead of firing into a global
// bus; the handler decides when to hand it to the Notifier.
type Event struct {
	Recipient string
	Actor     string
	Kind      models.NotificationKind
	// MeetupTitle is carried by meetup events so templates avoid a second
	// lookup; empty for relationship events.
	MeetupTitle string
	Data        map[string]string
}
