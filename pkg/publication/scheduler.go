package publication

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/provider"
)

// The methods in this file implement the per-subscription timing state
// machine. All of them run with m.mu held.

// activate moves s to Active, arms its expiry timer and requests the
// initial publication for attribute subscriptions.
func (m *Manager) activate(s *subscriptionState) {
	now := m.clock.Now()
	old := s.lifecycle
	s.lifecycle = stateActive
	m.metrics.recordActive(1)

	ev := s.traceEvent(now, log.CategoryLifecycle)
	ev.Lifecycle = &log.LifecycleEvent{
		OldState: old.String(),
		NewState: s.lifecycle.String(),
		Qos:      s.qos.Kind.String(),
	}
	m.trace.Log(ev)

	if s.qos.HasExpiry() {
		m.arm(s, &s.expiry, s.qos.ExpiryDate.Sub(now), func(s *subscriptionState) {
			m.terminate(s, reasonExpired)
		})
	}

	if s.kind == MemberAttribute {
		m.invokeGetter(s, log.TriggerInitial)
	}
}

// arm (re)starts a timer slot. The callback runs under the scheduling lock
// and only if the slot was not stopped or re-armed and s is still Active.
func (m *Manager) arm(s *subscriptionState, slot *timerSlot, d time.Duration, fire func(*subscriptionState)) {
	slot.stop()
	gen := slot.gen
	slot.timer = m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if slot.gen != gen || !s.active() {
			return
		}
		slot.timer = nil
		fire(s)
	})
}

// expireIfDue terminates s if its expiry date has been reached. Every
// trigger checks this first so that expiry wins over a coinciding timer.
func (m *Manager) expireIfDue(s *subscriptionState) bool {
	if s.qos.Expired(m.clock.Now()) {
		m.terminate(s, reasonExpired)
		return true
	}
	return false
}

// attributeChanged handles a change notification for an attribute
// subscription.
func (m *Manager) attributeChanged(s *subscriptionState) {
	if !s.active() || !s.qos.ChangeDriven() {
		return
	}
	if m.expireIfDue(s) {
		return
	}

	if s.getterInFlight {
		// The running getter may already see the new value; look again
		// once it settles.
		s.retrigger = true
		return
	}
	if s.debounce.pending() {
		return
	}

	elapsed, ok := s.sinceLastPublish(m.clock.Now())
	if !ok || elapsed >= s.qos.MinInterval {
		m.invokeGetter(s, log.TriggerChange)
		return
	}
	m.arm(s, &s.debounce, s.qos.MinInterval-elapsed, m.debounceFired)
}

// debounceFired closes a debounce window.
func (m *Manager) debounceFired(s *subscriptionState) {
	if m.expireIfDue(s) {
		return
	}
	if s.getterInFlight {
		s.retrigger = true
		return
	}
	m.invokeGetter(s, log.TriggerChange)
}

// heartbeatFired emits a periodic or keep-alive publication.
func (m *Manager) heartbeatFired(s *subscriptionState) {
	if m.expireIfDue(s) {
		return
	}
	if s.getterInFlight {
		// The in-flight publication re-arms the heartbeat.
		return
	}
	m.invokeGetter(s, log.TriggerHeartbeat)
}

// invokeGetter starts the getter on its own goroutine. Any pending
// debounce window is closed since the getter reads the latest value.
func (m *Manager) invokeGetter(s *subscriptionState, trigger log.Trigger) {
	s.debounce.stop()
	s.getterInFlight = true
	s.retrigger = false

	attr, ctx := s.attribute, s.ctx
	go func() {
		value, err := callGetter(ctx, attr)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.getterDone(s, trigger, value, err)
	}()
}

// getterDone publishes the getter result unless s terminated meanwhile.
func (m *Manager) getterDone(s *subscriptionState, trigger log.Trigger, value any, err error) {
	s.getterInFlight = false

	if !s.active() {
		m.metrics.recordStaleCompletion()
		m.debugLog("getter result discarded", "subscriptionID", s.id, "state", s.lifecycle.String())
		return
	}
	if m.expireIfDue(s) {
		return
	}

	if err != nil {
		m.metrics.recordGetterFailure()
		m.debugLog("getter failed", "subscriptionID", s.id, "attribute", s.member, "error", err)
		m.publish(s, trigger, nil, err)
	} else {
		m.publish(s, trigger, []any{value}, nil)
	}

	if s.retrigger {
		s.retrigger = false
		m.attributeChanged(s)
	}
}

// publish hands one publication to the dispatcher and updates the rate
// limiting bookkeeping.
func (m *Manager) publish(s *subscriptionState, trigger log.Trigger, response []any, pubErr error) {
	now := m.clock.Now()
	s.lastPublish = now
	s.published = true

	if s.kind == MemberAttribute {
		if hb := s.qos.Heartbeat(); hb > 0 {
			m.arm(s, &s.heartbeat, hb, m.heartbeatFired)
		}
	}

	expiry := now.Add(s.qos.TTL())
	info := MessagingInfo{
		From:       s.providerID,
		To:         s.proxyID,
		ExpiryDate: strconv.FormatInt(expiry.UnixMilli(), 10),
	}
	m.dispatcher.SendPublication(info, Publication{
		SubscriptionID: s.id,
		Response:       response,
		Error:          pubErr,
	})
	m.metrics.recordPublication(s.kind, trigger)

	ev := s.traceEvent(now, log.CategoryPublication)
	ev.Publication = &log.PublicationEvent{Trigger: trigger, ExpiryDate: expiry}
	if pubErr != nil {
		ev.Publication.Error = pubErr.Error()
	} else {
		ev.Publication.Payload = tracePayload(response)
	}
	m.trace.Log(ev)
}

// terminate moves s to Terminated, cancels every timer and drops it from
// the registry. It is idempotent.
func (m *Manager) terminate(s *subscriptionState, reason terminationReason) {
	if s.lifecycle == stateTerminated {
		return
	}
	old := s.lifecycle
	s.lifecycle = stateTerminated
	s.stopTimers()
	s.cancel()
	s.pendingValue = nil
	s.retrigger = false

	if m.registry.get(s.id) == s {
		m.registry.remove(s.id)
	}
	if old == stateActive {
		m.metrics.recordActive(-1)
	}
	if reason.forgets() {
		m.forget(s.id)
	}

	m.debugLog("subscription terminated", "subscriptionID", s.id, "reason", string(reason))
	ev := s.traceEvent(m.clock.Now(), log.CategoryLifecycle)
	ev.Lifecycle = &log.LifecycleEvent{
		OldState: old.String(),
		NewState: s.lifecycle.String(),
		Reason:   string(reason),
		Qos:      s.qos.Kind.String(),
	}
	m.trace.Log(ev)
}

// callGetter runs the attribute getter, converting a panic into an error.
func callGetter(ctx context.Context, attr provider.Attribute) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: %v", ErrGetterPanic, r)
		}
	}()
	return attr.Get(ctx)
}

func tracePayload(response []any) any {
	if len(response) == 1 {
		return response[0]
	}
	return response
}
