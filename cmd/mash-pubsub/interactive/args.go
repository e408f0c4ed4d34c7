package interactive

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

const defaultProxyID = "console"

// requestArgs holds the key=value options shared by both subscribe commands.
type requestArgs struct {
	proxyID        string
	subscriptionID string
	qos            qos.Qos
	filters        provider.FilterParameters
	partitions     []string
}

// parseAttributeArgs parses
//
//	<attribute> periodic <period> [options]
//	<attribute> onchange <minInterval> [options]
//	<attribute> mixed <minInterval> <maxInterval> [options]
func parseAttributeArgs(args []string, now time.Time) (string, requestArgs, error) {
	if len(args) < 3 {
		return "", requestArgs{}, fmt.Errorf("expected <attribute> <periodic|onchange|mixed> <interval>...")
	}

	name := args[0]
	kind := strings.ToLower(args[1])
	rest := args[2:]

	var q qos.Qos
	switch kind {
	case "periodic":
		period, err := parseDuration(rest[0])
		if err != nil {
			return "", requestArgs{}, err
		}
		q = qos.Periodic(period)
		rest = rest[1:]
	case "onchange":
		minInterval, err := parseDuration(rest[0])
		if err != nil {
			return "", requestArgs{}, err
		}
		q = qos.OnChange(minInterval)
		rest = rest[1:]
	case "mixed":
		if len(rest) < 2 {
			return "", requestArgs{}, fmt.Errorf("mixed needs <minInterval> <maxInterval>")
		}
		minInterval, err := parseDuration(rest[0])
		if err != nil {
			return "", requestArgs{}, err
		}
		maxInterval, err := parseDuration(rest[1])
		if err != nil {
			return "", requestArgs{}, err
		}
		q = qos.Mixed(minInterval, maxInterval)
		rest = rest[2:]
	default:
		return "", requestArgs{}, fmt.Errorf("unknown qos %q", kind)
	}

	req := requestArgs{proxyID: defaultProxyID, qos: q}
	if err := req.applyOptions(rest, now, false); err != nil {
		return "", requestArgs{}, err
	}
	return name, req, nil
}

// parseEventArgs parses <event> [options]. The QoS defaults to Multicast
// with a 10s validity.
func parseEventArgs(args []string, now time.Time) (string, requestArgs, error) {
	if len(args) < 1 {
		return "", requestArgs{}, fmt.Errorf("expected <event>")
	}

	req := requestArgs{
		proxyID: defaultProxyID,
		qos:     qos.Multicast(10 * time.Second),
	}
	if err := req.applyOptions(args[1:], now, true); err != nil {
		return "", requestArgs{}, err
	}
	return args[0], req, nil
}

// applyOptions parses key=value options. Unknown keys are filter
// parameters when broadcast is set.
func (r *requestArgs) applyOptions(opts []string, now time.Time, broadcast bool) error {
	for _, opt := range opts {
		key, value, ok := strings.Cut(opt, "=")
		if !ok || value == "" {
			return fmt.Errorf("option %q must be key=value", opt)
		}

		switch key {
		case "proxy":
			r.proxyID = value
		case "id":
			r.subscriptionID = value
		case "expiry":
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos = r.qos.WithExpiry(now.Add(d))
		case "ttl":
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos = r.qos.WithPublicationTTL(d)
		case "alert":
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos = r.qos.WithAlertAfter(d)
		case "validity":
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos.Validity = d
		case "min":
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos = r.qos.WithMinInterval(d)
		case "onchange":
			if !broadcast {
				return fmt.Errorf("unknown option %q", key)
			}
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			r.qos = qos.OnChange(d).WithExpiry(r.qos.ExpiryDate)
		case "partitions":
			if !broadcast {
				return fmt.Errorf("unknown option %q", key)
			}
			r.partitions = strings.Split(value, ",")
		default:
			if !broadcast {
				return fmt.Errorf("unknown option %q", key)
			}
			if r.filters == nil {
				r.filters = provider.FilterParameters{}
			}
			r.filters[key] = value
		}
	}
	return nil
}

// parseDuration accepts Go durations and bare milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
