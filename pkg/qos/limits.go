package qos

import (
	"errors"
	"fmt"
	"time"
)

// QoS validation errors.
var (
	ErrInvalidKind         = errors.New("invalid subscription qos kind")
	ErrPeriodTooSmall      = errors.New("period below floor")
	ErrMinIntervalTooSmall = errors.New("minInterval below floor")
	ErrMaxIntervalTooSmall = errors.New("maxInterval below floor")
	ErrPublicationTTL      = errors.New("publication ttl out of range")
	ErrAlertAfterInterval  = errors.New("alertAfterInterval smaller than period")
)

// Default floors.
const (
	DefaultMinPeriod         = 50 * time.Millisecond
	DefaultMinMinInterval    = 0
	DefaultMinMaxInterval    = 50 * time.Millisecond
	DefaultMinPublicationTTL = 100 * time.Millisecond
	DefaultMaxPublicationTTL = 30 * 24 * time.Hour
)

// Limits holds the system-defined floors applied during admission.
type Limits struct {
	// MinPeriod is the smallest accepted Periodic period.
	MinPeriod time.Duration

	// MinInterval is the smallest accepted debounce window.
	MinInterval time.Duration

	// MinMaxInterval is the smallest accepted Mixed heartbeat.
	MinMaxInterval time.Duration

	// MinPublicationTTL and MaxPublicationTTL bound a non-zero publication TTL.
	MinPublicationTTL time.Duration
	MaxPublicationTTL time.Duration
}

// DefaultLimits returns the default floors.
func DefaultLimits() Limits {
	return Limits{
		MinPeriod:         DefaultMinPeriod,
		MinInterval:       DefaultMinMinInterval,
		MinMaxInterval:    DefaultMinMaxInterval,
		MinPublicationTTL: DefaultMinPublicationTTL,
		MaxPublicationTTL: DefaultMaxPublicationTTL,
	}
}

// Validate checks q against the floors. The returned error wraps one of the
// package sentinels and reads as a detail message for the consumer.
func (l Limits) Validate(q Qos) error {
	switch q.Kind {
	case KindPeriodic:
		if q.Period < l.MinPeriod {
			return fmt.Errorf("%w: period %dms is smaller than PeriodicSubscriptionQos.MinPeriod %dms",
				ErrPeriodTooSmall, q.Period.Milliseconds(), l.MinPeriod.Milliseconds())
		}
		if q.AlertAfterInterval != 0 && q.AlertAfterInterval < q.Period {
			return fmt.Errorf("%w: alertAfterInterval %dms is smaller than period %dms",
				ErrAlertAfterInterval, q.AlertAfterInterval.Milliseconds(), q.Period.Milliseconds())
		}
	case KindOnChange:
		if err := l.checkMinInterval(q, "OnChangeSubscriptionQos"); err != nil {
			return err
		}
	case KindMixed:
		if err := l.checkMinInterval(q, "OnChangeWithKeepAliveSubscriptionQos"); err != nil {
			return err
		}
		if q.MaxInterval < l.MinMaxInterval {
			return fmt.Errorf("%w: maxInterval %dms is smaller than OnChangeWithKeepAliveSubscriptionQos.MinMaxInterval %dms",
				ErrMaxIntervalTooSmall, q.MaxInterval.Milliseconds(), l.MinMaxInterval.Milliseconds())
		}
		if q.MaxInterval < q.MinInterval {
			return fmt.Errorf("%w: maxInterval %dms is smaller than minInterval %dms",
				ErrMaxIntervalTooSmall, q.MaxInterval.Milliseconds(), q.MinInterval.Milliseconds())
		}
	case KindMulticast:
		if q.MinInterval != 0 {
			if err := l.checkMinInterval(q, "MulticastSubscriptionQos"); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKind, q.Kind)
	}

	if q.PublicationTTL != 0 && (q.PublicationTTL < l.MinPublicationTTL || q.PublicationTTL > l.MaxPublicationTTL) {
		return fmt.Errorf("%w: publicationTtl %dms is outside [%dms, %dms]", ErrPublicationTTL,
			q.PublicationTTL.Milliseconds(), l.MinPublicationTTL.Milliseconds(), l.MaxPublicationTTL.Milliseconds())
	}
	return nil
}

func (l Limits) checkMinInterval(q Qos, name string) error {
	if q.MinInterval < 0 || q.MinInterval < l.MinInterval {
		return fmt.Errorf("%w: minInterval %dms is smaller than %s.MinMinInterval %dms",
			ErrMinIntervalTooSmall, q.MinInterval.Milliseconds(), name, l.MinInterval.Milliseconds())
	}
	return nil
}
