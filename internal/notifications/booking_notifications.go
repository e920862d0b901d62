package notifications

import (
	"context"
	"fmt"

	"gaadi/internal/domain/pushtokens"

	"github.com/9ssi7/exponent"
)

type BookingEvent string

const (
	BookingCreated   BookingEvent = "CREATED"
	BookingConfirmed BookingEvent = "CONFIRMED"
	BookingDenied    BookingEvent = "DENIED"
	BookingCancelled BookingEvent = "CANCELLED"
	BookingCompleted BookingEvent = "COMPLETED"
	BookingExtended  BookingEvent = "EXTENDED"
)

// SendBookingNotification pushes a lifecycle update to every device the
// user has registered. The reference code, not the numeric ID, is what
// users see in the app.
func SendBookingNotification(ctx context.Context, push PushSender, tokens pushtokens.Store, userID int64, event BookingEvent, reference string) error {
	tokensMap, err := tokens.GetByUserIDs(ctx, []int64{userID})
	if err != nil {
		return err
	}
	userTokens := tokensMap[userID]
	if len(userTokens) == 0 {
		return pushtokens.ErrNoTokens
	}

	var title, body string
	switch event {
	case BookingCreated:
		title = "Booking Received"
		body = fmt.Sprintf("Your booking %s is in. Pay the advance to lock the car.", reference)
	case BookingConfirmed:
		title = "Booking Confirmed"
		body = fmt.Sprintf("Your booking %s has been confirmed! 🎉", reference)
	case BookingDenied:
		title = "Booking Denied"
		body = fmt.Sprintf("Your booking %s could not be confirmed. Your advance will be refunded.", reference)
	case BookingCancelled:
		title = "Booking Cancelled"
		body = fmt.Sprintf("Your booking %s has been cancelled.", reference)
	case BookingCompleted:
		title = "Trip Completed"
		body = fmt.Sprintf("Your booking %s is complete. Thanks for riding with us!", reference)
	case BookingExtended:
		title = "Trip Extended"
		body = fmt.Sprintf("Your booking %s has been extended.", reference)
	default:
		title = "Booking Update"
		body = fmt.Sprintf("Your booking %s has an update.", reference)
	}

	msgs := make([]*exponent.Message, 0, len(userTokens))
	for _, t := range userTokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// data drives deep linking when the notification is tapped
			Data: map[string]string{
				"type":      "booking",
				"event":     string(event),
				"reference": reference,
				"screen":    "my-bookings-screen",
			},
		}
		msgs = append(msgs, msg)
	}

	if _, err := push.Publish(ctx, msgs); err != nil {
		return err
	}
	return nil
}
