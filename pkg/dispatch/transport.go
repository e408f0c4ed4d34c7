package dispatch

import (
	"context"

	"github.com/mash-protocol/mash-pubsub/pkg/publication"
)

// Transport delivers a publication to the subscriber named by info.To.
type Transport interface {
	Send(ctx context.Context, info publication.MessagingInfo, pub publication.Publication) error
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, info publication.MessagingInfo, pub publication.Publication) error

// Send calls f.
func (f Func) Send(ctx context.Context, info publication.MessagingInfo, pub publication.Publication) error {
	return f(ctx, info, pub)
}
