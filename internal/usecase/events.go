package usecase

import "context"

// EventPublisher abstracts the NATS publisher so usecases can be exercised
// without a broker. Implemented by adapter/messaging/nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
