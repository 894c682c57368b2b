package services

import (
	"fmt"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

// Event is the envelope pushed to subscribed stream clients whenever a
// document changes. Topics are user uids and "location:<name>" strings.
type Event struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	Action     string `json:"action"`
	Doc        any    `json:"doc"`
}

type EventPublisher interface {
	Publish(topic string, event Event)
}

// Notifier fans document lifecycle changes out to the stream hub and the
// affected parties' inboxes.
type Notifier struct {
	mailer    EmailService
	publisher EventPublisher
}

func NewNotifier(mailer EmailService, publisher EventPublisher) *Notifier {
	return &Notifier{mailer: mailer, publisher: publisher}
}

func (n *Notifier) DocumentEvent(collection, action string, doc any, topics ...string) {
	if n == nil || n.publisher == nil {
		return
	}
	event := Event{Type: "document", Collection: collection, Action: action, Doc: doc}
	for _, topic := range topics {
		n.publisher.Publish(topic, event)
	}
}

func (n *Notifier) EmailUsers(subject, body string, users ...*models.User) {
	if n == nil || n.mailer == nil {
		return
	}
	emails := make([]Email, 0, len(users))
	for _, user := range users {
		if user == nil || user.Email == "" {
			continue
		}
		name := user.Email
		if user.Name != nil && *user.Name != "" {
			name = *user.Name
		}
		emails = append(emails, Email{
			ToName:    name,
			ToAddress: user.Email,
			Subject:   subject,
			Body:      body,
		})
	}
	n.mailer.Send(emails...)
}

// LocationTopic is the stream topic supervisors of a location subscribe to.
func LocationTopic(locationName string) string {
	return fmt.Sprintf("location:%s", locationName)
}
