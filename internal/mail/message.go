// Package mail renders and delivers outbound email. Delivery happens on a
// background worker pool so request handlers never wait on SMTP.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// ConfirmationData fills the confirmation template.
type ConfirmationData struct {
	Host     string
	Username string
	Token    string
}

// Renderer produces email bodies from the embedded templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Confirmation renders the email confirmation message.
func (r *Renderer) Confirmation(to string, data ConfirmationData) (Message, error) {
	data.Host = strings.TrimRight(data.Host, "/")

	var body bytes.Buffer
	if err := r.templates.ExecuteTemplate(&body, "email_confirmation.html", data); err != nil {
		return Message{}, fmt.Errorf("failed to render confirmation email: %w", err)
	}

	return Message{
		To:       to,
		Subject:  "Confirm your email",
		HTMLBody: body.String(),
	}, nil
}
