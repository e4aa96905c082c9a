package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/lprior-repo/sitekit/internal/contact"
)

// ContactEventType is set as the "type" attribute on published contact messages.
const ContactEventType = "contact.submitted"

// ContactMessage is the JSON payload published for one contact submission.
type ContactMessage struct {
	SubmissionID string    `json:"submissionId,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Message      string    `json:"message"`
	QueuedAt     time.Time `json:"queuedAt"`
}

// PubSubContactPublisher delivers contact forms to a Pub/Sub topic. It implements
// contact.Sender.
type PubSubContactPublisher struct {
	topic   *pubsub.Topic
	clock   func() time.Time
	marshal func(any) ([]byte, error)
}

// NewPubSubContactPublisher constructs a Pub/Sub backed contact sender.
func NewPubSubContactPublisher(topic *pubsub.Topic) (*PubSubContactPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub contact publisher: topic is required")
	}
	return &PubSubContactPublisher{
		topic:   topic,
		clock:   time.Now,
		marshal: json.Marshal,
	}, nil
}

var _ contact.Sender = (*PubSubContactPublisher)(nil)

// Send publishes form and waits for the server acknowledgement.
func (p *PubSubContactPublisher) Send(ctx context.Context, form contact.Form) error {
	_, err := p.Publish(ctx, form)
	return err
}

// Publish publishes form and returns the server-assigned message id.
func (p *PubSubContactPublisher) Publish(ctx context.Context, form contact.Form) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub contact publisher: not initialised")
	}

	submissionID := contact.SubmissionID(ctx)
	data, err := p.marshal(ContactMessage{
		SubmissionID: submissionID,
		Name:         form.Name,
		Email:        form.Email,
		Message:      form.Message,
		QueuedAt:     p.clock().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal contact message: %w", err)
	}

	attrs := map[string]string{"type": ContactEventType}
	setAttr(attrs, "submissionId", submissionID)

	id, err := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish contact message: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
