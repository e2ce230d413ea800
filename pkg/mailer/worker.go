package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack   Outcome = iota // sent
	Drop                 // unusable, nack without requeue
	Retry                // transient, nack with requeue
)

// SendTimeout bounds one delivery attempt.
const SendTimeout = 15 * time.Second

// Process decodes an EmailJob from body, renders it and sends it through s.
func Process(ctx context.Context, body []byte, s Sender) (Outcome, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return Drop, fmt.Errorf("bad message: %w", err)
	}
	if job.To == "" {
		return Drop, fmt.Errorf("bad message: missing recipient")
	}
	subject, text, html, err := job.Render()
	if err != nil {
		return Drop, fmt.Errorf("render %s: %w", job.Template, err)
	}
	c, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()
	if err := s.Send(c, job.To, subject, text, html); err != nil {
		return Retry, fmt.Errorf("send: %w", err)
	}
	return Ack, nil
}
