package mailer

import "embed"

const (
	FromName                 = "Gaadi"
	maxRetries               = 3
	BookingConfirmedTemplate = "booking_confirmed.tmpl"
	BookingDeniedTemplate    = "booking_denied.tmpl"
	BookingCompletedTemplate = "booking_completed.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
