package qos

import (
	"time"
)

// Default QoS values.
const (
	DefaultPeriod         = 60 * time.Second
	DefaultMinInterval    = 1 * time.Second
	DefaultMaxInterval    = 60 * time.Second
	DefaultPublicationTTL = 10 * time.Second
	DefaultValidity       = 10 * time.Second
)

// Kind discriminates the QoS variants.
type Kind uint8

const (
	// KindPeriodic publishes on a fixed heartbeat only.
	KindPeriodic Kind = iota + 1

	// KindOnChange publishes on value changes with a minimum gap.
	KindOnChange

	// KindMixed publishes on value changes plus a heartbeat ceiling.
	KindMixed

	// KindMulticast is used for non-selective broadcasts.
	KindMulticast
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPeriodic:
		return "PERIODIC"
	case KindOnChange:
		return "ON_CHANGE"
	case KindMixed:
		return "MIXED"
	case KindMulticast:
		return "MULTICAST"
	default:
		return "UNKNOWN"
	}
}

// Qos is the timing contract of one subscription. Only the fields that
// belong to Kind are meaningful.
type Qos struct {
	Kind Kind `json:"kind" cbor:"1,keyasint"`

	// Period is the heartbeat of a Periodic subscription.
	Period time.Duration `json:"period,omitempty" cbor:"2,keyasint,omitempty"`

	// AlertAfterInterval tells the consumer when to consider a Periodic
	// subscription stale. The provider side only validates it.
	AlertAfterInterval time.Duration `json:"alert_after_interval,omitempty" cbor:"3,keyasint,omitempty"`

	// MinInterval is the debounce window for OnChange, Mixed and throttled
	// Multicast subscriptions.
	MinInterval time.Duration `json:"min_interval,omitempty" cbor:"4,keyasint,omitempty"`

	// MaxInterval is the heartbeat ceiling of a Mixed subscription.
	MaxInterval time.Duration `json:"max_interval,omitempty" cbor:"5,keyasint,omitempty"`

	// Validity is the lifetime of a Multicast publication.
	Validity time.Duration `json:"validity,omitempty" cbor:"6,keyasint,omitempty"`

	// PublicationTTL is how long a publication stays valid in transit.
	// Zero selects DefaultPublicationTTL.
	PublicationTTL time.Duration `json:"publication_ttl,omitempty" cbor:"7,keyasint,omitempty"`

	// ExpiryDate ends the subscription. Zero means no expiry.
	ExpiryDate time.Time `json:"expiry_date,omitempty" cbor:"8,keyasint,omitempty"`
}

// Periodic returns a heartbeat-only QoS.
func Periodic(period time.Duration) Qos {
	return Qos{Kind: KindPeriodic, Period: period}
}

// OnChange returns a change-driven QoS with the given debounce window.
func OnChange(minInterval time.Duration) Qos {
	return Qos{Kind: KindOnChange, MinInterval: minInterval}
}

// Mixed returns a change-driven QoS with a heartbeat ceiling.
func Mixed(minInterval, maxInterval time.Duration) Qos {
	return Qos{Kind: KindMixed, MinInterval: minInterval, MaxInterval: maxInterval}
}

// Multicast returns a broadcast QoS with the given publication validity.
func Multicast(validity time.Duration) Qos {
	return Qos{Kind: KindMulticast, Validity: validity}
}

// WithExpiry returns a copy of q that expires at t.
func (q Qos) WithExpiry(t time.Time) Qos {
	q.ExpiryDate = t
	return q
}

// WithPublicationTTL returns a copy of q with the given publication TTL.
func (q Qos) WithPublicationTTL(ttl time.Duration) Qos {
	q.PublicationTTL = ttl
	return q
}

// WithMinInterval returns a copy of q with a debounce window. Used to
// throttle Multicast subscriptions.
func (q Qos) WithMinInterval(d time.Duration) Qos {
	q.MinInterval = d
	return q
}

// WithAlertAfter returns a copy of q with the given alert interval.
func (q Qos) WithAlertAfter(d time.Duration) Qos {
	q.AlertAfterInterval = d
	return q
}

// HasExpiry reports whether q carries an expiry date.
func (q Qos) HasExpiry() bool {
	return !q.ExpiryDate.IsZero()
}

// Expired reports whether the expiry date has been reached at now.
func (q Qos) Expired(now time.Time) bool {
	return q.HasExpiry() && !now.Before(q.ExpiryDate)
}

// Heartbeat returns the interval at which a publication must be emitted even
// without changes, or zero if the kind has none.
func (q Qos) Heartbeat() time.Duration {
	switch q.Kind {
	case KindPeriodic:
		return q.Period
	case KindMixed:
		return q.MaxInterval
	default:
		return 0
	}
}

// ChangeDriven reports whether value changes trigger publications.
func (q Qos) ChangeDriven() bool {
	return q.Kind == KindOnChange || q.Kind == KindMixed
}

// TTL returns the lifetime to stamp on outgoing publications.
func (q Qos) TTL() time.Duration {
	if q.Kind == KindMulticast && q.Validity > 0 {
		return q.Validity
	}
	if q.PublicationTTL > 0 {
		return q.PublicationTTL
	}
	return DefaultPublicationTTL
}
