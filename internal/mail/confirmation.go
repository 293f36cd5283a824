package mail

// ConfirmationMailer queues confirmation emails pointing at the public host.
type ConfirmationMailer struct {
	renderer   *Renderer
	dispatcher *Dispatcher
	host       string
}

// NewConfirmationMailer creates a new ConfirmationMailer.
func NewConfirmationMailer(renderer *Renderer, dispatcher *Dispatcher, host string) *ConfirmationMailer {
	return &ConfirmationMailer{renderer: renderer, dispatcher: dispatcher, host: host}
}

// SendConfirmation renders the message and hands it to the dispatcher.
func (m *ConfirmationMailer) SendConfirmation(email, username, token string) error {
	msg, err := m.renderer.Confirmation(email, ConfirmationData{
		Host:     m.host,
		Username: username,
		Token:    token,
	})
	if err != nil {
		return err
	}
	return m.dispatcher.Submit(msg)
}
