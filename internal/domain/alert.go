package domain

import "strings"

// AlertMessage is the rendered alert for one transaction.
type AlertMessage struct {
	Signature string
	Lines     []string
}

// Text joins the lines into the message body sent to notification channels.
func (m AlertMessage) Text() string {
	return strings.Join(m.Lines, "\n")
}
