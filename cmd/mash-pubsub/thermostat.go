package main

import (
	"fmt"
	"strconv"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
)

const thermostatID = "thermostat"

// Attribute and event names of the simulated thermostat.
const (
	attrTemperature = "temperature"
	attrSetpoint    = "setpoint"
	eventAlarm      = "alarm"
)

// thermostat is a simulated provider with two attributes and an alarm
// broadcast filtered by the subscriber's minLevel.
type thermostat struct {
	provider    *provider.Static
	temperature *provider.Value
	setpoint    *provider.Value
	alarm       *provider.Broadcast
}

func newThermostat() *thermostat {
	t := &thermostat{
		temperature: provider.NewValue(20.0),
		setpoint:    provider.NewValue(21.0),
		alarm:       provider.NewBroadcast([]string{"level", "message"}, "minLevel"),
	}
	t.alarm.AddFilter(provider.FilterFunc(minLevelFilter))
	t.provider = provider.NewStatic().
		WithAttribute(attrTemperature, t.temperature).
		WithAttribute(attrSetpoint, t.setpoint).
		WithEvent(eventAlarm, t.alarm)
	return t
}

// ID returns the provider ID.
func (t *thermostat) ID() string {
	return thermostatID
}

// Attributes lists the attribute names.
func (t *thermostat) Attributes() []string {
	return t.provider.AttributeNames()
}

// Events lists the event names.
func (t *thermostat) Events() []string {
	return t.provider.EventNames()
}

// Set parses value as a float and assigns it to the named attribute.
func (t *thermostat) Set(attribute, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", value, err)
	}

	switch attribute {
	case attrTemperature:
		t.temperature.Set(v)
	case attrSetpoint:
		t.setpoint.Set(v)
	default:
		return fmt.Errorf("unknown attribute: %s", attribute)
	}
	return nil
}

// Fire raises an alarm in the given partitions.
func (t *thermostat) Fire(level int, message string, partitions []string) error {
	out := t.alarm.NewOutputParameters()
	if err := out.Set("level", level); err != nil {
		return err
	}
	if err := out.Set("message", message); err != nil {
		return err
	}
	t.alarm.Fire(out, partitions...)
	return nil
}

// minLevelFilter passes alarms at or above the subscriber's minLevel.
func minLevelFilter(out provider.OutputParameters, params provider.FilterParameters) bool {
	raw, ok := params["minLevel"]
	if !ok {
		return true
	}
	threshold, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	level, _ := out.Get("level")
	v, ok := level.(int)
	return ok && v >= threshold
}
