package mailer

import "github.com/projectfocus/focus-api/pkg/mailer/templates"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names one of the embedded templates; Data feeds it.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Render resolves the job into a ready-to-send message.
func (j EmailJob) Render() (subject, text, html string, err error) {
	data := j.Data
	if data == nil {
		data = map[string]any{}
	}
	if v, ok := data["Email"]; !ok || v == "" {
		data["Email"] = j.To
	}
	return templates.Render(j.Template, data)
}
