package publication

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

// Manager is the publication engine of one provider runtime.
type Manager struct {
	mu sync.Mutex

	config     Config
	clock      clockwork.Clock
	dispatcher Dispatcher
	logger     *slog.Logger
	trace      log.Logger
	store      Store
	metrics    *metrics

	registry  *registry
	providers map[string]*providerRegistration
	seq       uint64
	shutdown  bool
}

// NewManager creates a publication manager that sends through dispatcher.
func NewManager(dispatcher Dispatcher, config Config) (*Manager, error) {
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if config.Limits == (qos.Limits{}) {
		config.Limits = qos.DefaultLimits()
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.TraceLogger == nil {
		config.TraceLogger = log.NoopLogger{}
	}

	met, err := newMetrics(config.MeterProvider)
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:     config,
		clock:      config.Clock,
		dispatcher: dispatcher,
		logger:     config.Logger,
		trace:      config.TraceLogger,
		store:      config.Store,
		metrics:    met,
		registry:   newRegistry(),
		providers:  make(map[string]*providerRegistration),
	}, nil
}

// AddPublicationProvider registers a provider and attaches one change
// observer to each of its attributes and events. Adding an already
// registered provider ID is a no-op. Persisted subscriptions of the
// provider are restored.
func (m *Manager) AddPublicationProvider(providerID string, p provider.Provider) error {
	if p == nil {
		return ErrNilProvider
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return ErrShutdown
	}
	if _, exists := m.providers[providerID]; exists {
		return nil
	}

	reg := newProviderRegistration(m, providerID, p)
	reg.register()
	m.providers[providerID] = reg

	m.debugLog("provider added", "providerID", providerID,
		"attributes", len(reg.attributes), "events", len(reg.events))

	m.restore(providerID)
	return nil
}

// RemovePublicationProvider unregisters the provider's observers and
// terminates all of its subscriptions. No publication for those
// subscriptions is emitted after it returns.
func (m *Manager) RemovePublicationProvider(providerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, exists := m.providers[providerID]
	if !exists {
		return
	}
	reg.unregister()
	delete(m.providers, providerID)

	for _, s := range m.registry.forProvider(providerID) {
		m.terminate(s, reasonProviderRemoved)
	}
	m.debugLog("provider removed", "providerID", providerID)
}

// HandleSubscriptionRequest admits an attribute subscription and returns
// its ID. The initial publication is emitted asynchronously.
//
// A rejected request returns a *SubscriptionError. A request that already
// expired is handled according to Config.ExpiredRequests.
func (m *Manager) HandleSubscriptionRequest(proxyID, providerID string, req SubscriptionRequest, opts ...RequestOption) (string, error) {
	o := applyRequestOptions(opts)
	if req.SubscriptionID == "" {
		req.SubscriptionID = uuid.NewString()
	}

	m.mu.Lock()
	s, err := m.admitAttribute(proxyID, providerID, req, true)
	m.mu.Unlock()

	if err != nil {
		return req.SubscriptionID, err
	}
	if s != nil && o.onSubscribed != nil {
		o.onSubscribed(s.id)
	}
	return req.SubscriptionID, nil
}

// HandleEventSubscriptionRequest admits a broadcast subscription and
// returns its ID.
func (m *Manager) HandleEventSubscriptionRequest(proxyID, providerID string, req BroadcastSubscriptionRequest, opts ...RequestOption) (string, error) {
	o := applyRequestOptions(opts)
	if req.SubscriptionID == "" {
		req.SubscriptionID = uuid.NewString()
	}

	m.mu.Lock()
	s, err := m.admitBroadcast(proxyID, providerID, req, true)
	m.mu.Unlock()

	if err != nil {
		return req.SubscriptionID, err
	}
	if s != nil && o.onSubscribed != nil {
		o.onSubscribed(s.id)
	}
	return req.SubscriptionID, nil
}

// HandleSubscriptionStop terminates a subscription. Unknown IDs are ignored.
func (m *Manager) HandleSubscriptionStop(stop SubscriptionStop) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.registry.get(stop.SubscriptionID)
	if s == nil {
		m.forget(stop.SubscriptionID)
		return
	}
	m.terminate(s, reasonStopped)
}

// HasSubscriptionsForProviderAttribute reports whether any active
// subscription references the attribute.
func (m *Manager) HasSubscriptionsForProviderAttribute(providerID, attributeName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.hasMember(memberKey{providerID: providerID, member: attributeName, kind: MemberAttribute})
}

// HasSubscriptionsForProviderEvent reports whether any active subscription
// references the event.
func (m *Manager) HasSubscriptionsForProviderEvent(providerID, eventName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.hasMember(memberKey{providerID: providerID, member: eventName, kind: MemberEvent})
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.len()
}

// SubscriptionIDs returns the IDs of all active subscriptions in admission order.
func (m *Manager) SubscriptionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.registry.all()
	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.id
	}
	return ids
}

// Shutdown terminates every subscription and detaches from all providers.
// Persisted requests are kept. Later calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return
	}
	m.shutdown = true

	for _, s := range m.registry.all() {
		m.terminate(s, reasonShutdown)
	}
	for id, reg := range m.providers {
		reg.unregister()
		delete(m.providers, id)
	}
}

// admitAttribute validates and activates an attribute subscription. It
// returns nil, nil for a silently dropped expired request.
func (m *Manager) admitAttribute(proxyID, providerID string, req SubscriptionRequest, persist bool) (*subscriptionState, error) {
	id := req.SubscriptionID
	if m.shutdown {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrShutdown, "publication manager is shut down")
	}

	reg, ok := m.providers[providerID]
	if !ok {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrUnknownProvider,
			fmt.Sprintf("Provider: %s is not registered", providerID))
	}
	attr, ok := reg.attributes[req.SubscribedToName]
	if !ok {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrUnknownAttribute,
			fmt.Sprintf("Provider: %s misses attribute %s", providerID, req.SubscribedToName))
	}
	if req.Qos.Kind == qos.KindMulticast {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrInvalidQos,
			fmt.Sprintf("SubscriptionRequest %s: MulticastSubscriptionQos is only valid for broadcasts", id))
	}
	if err := m.config.Limits.Validate(req.Qos); err != nil {
		return nil, m.rejectQos(id, proxyID, providerID, req.SubscribedToName, err)
	}
	if req.Qos.Expired(m.clock.Now()) {
		return nil, m.expiredOnArrival(id, proxyID, providerID, req.SubscribedToName)
	}

	s := m.newState(id, proxyID, providerID, req.SubscribedToName, MemberAttribute, req)
	s.attribute = attr

	if persist {
		m.persist(StoredSubscription{
			ProxyID:    proxyID,
			ProviderID: providerID,
			Kind:       MemberAttribute,
			Request:    &req,
			StoredAt:   m.clock.Now(),
		})
	}

	m.debugLog("subscription admitted", "subscriptionID", id, "providerID", providerID,
		"attribute", req.SubscribedToName, "qos", req.Qos.Kind.String())
	m.activate(s)
	return s, nil
}

// admitBroadcast validates and activates a broadcast subscription.
func (m *Manager) admitBroadcast(proxyID, providerID string, req BroadcastSubscriptionRequest, persist bool) (*subscriptionState, error) {
	id := req.SubscriptionID
	if m.shutdown {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrShutdown, "publication manager is shut down")
	}

	reg, ok := m.providers[providerID]
	if !ok {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrUnknownProvider,
			fmt.Sprintf("Provider: %s is not registered", providerID))
	}
	ev, ok := reg.events[req.SubscribedToName]
	if !ok {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrUnknownEvent,
			fmt.Sprintf("Provider: %s misses event %s", providerID, req.SubscribedToName))
	}
	if req.Qos.Kind != qos.KindMulticast && req.Qos.Kind != qos.KindOnChange {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrInvalidQos,
			fmt.Sprintf("SubscriptionRequest %s: %s qos is not valid for broadcasts", id, req.Qos.Kind))
	}
	if err := m.config.Limits.Validate(req.Qos); err != nil {
		return nil, m.rejectQos(id, proxyID, providerID, req.SubscribedToName, err)
	}
	if missing := undeclaredFilterParameters(ev, req.FilterParameters); len(missing) > 0 {
		return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrInvalidFilterParameters,
			fmt.Sprintf("event %s does not declare filter parameters %s", req.SubscribedToName, strings.Join(missing, ", ")))
	}
	for _, p := range req.Partitions {
		if !validPartition(p) {
			return nil, m.reject(id, proxyID, providerID, req.SubscribedToName, ErrInvalidPartition,
				fmt.Sprintf("partition %q must be a non-empty alphanumeric string", p))
		}
	}
	if req.Qos.Expired(m.clock.Now()) {
		return nil, m.expiredOnArrival(id, proxyID, providerID, req.SubscribedToName)
	}

	s := m.newState(id, proxyID, providerID, req.SubscribedToName, MemberEvent, SubscriptionRequest{Qos: req.Qos})
	s.event = ev
	s.filterParameters = req.FilterParameters
	s.partitions = append([]string(nil), req.Partitions...)

	if persist {
		m.persist(StoredSubscription{
			ProxyID:    proxyID,
			ProviderID: providerID,
			Kind:       MemberEvent,
			Broadcast:  &req,
			StoredAt:   m.clock.Now(),
		})
	}

	m.debugLog("broadcast subscription admitted", "subscriptionID", id, "providerID", providerID,
		"event", req.SubscribedToName, "partitions", req.Partitions)
	m.activate(s)
	return s, nil
}

// newState replaces any subscription with the same ID and registers a new
// Pending state.
func (m *Manager) newState(id, proxyID, providerID, member string, kind MemberKind, req SubscriptionRequest) *subscriptionState {
	if existing := m.registry.get(id); existing != nil {
		m.terminate(existing, reasonReplaced)
	}
	m.seq++
	s := newSubscriptionState(m.seq, id, proxyID, providerID, member, kind, req.Qos)
	m.registry.add(s)
	return s
}

// reject records and returns a SubscriptionError.
func (m *Manager) reject(id, proxyID, providerID, member string, sentinel error, detail string) error {
	return m.rejectWith(id, proxyID, providerID, member, sentinel, sentinel, detail)
}

// rejectQos rejects a request that failed QoS validation. The error
// unwraps to both ErrInvalidQos and the qos package sentinel.
func (m *Manager) rejectQos(id, proxyID, providerID, member string, verr error) error {
	detail := fmt.Sprintf("SubscriptionRequest %s: %v", id, verr)
	return m.rejectWith(id, proxyID, providerID, member, ErrInvalidQos,
		fmt.Errorf("%w: %w", ErrInvalidQos, verr), detail)
}

func (m *Manager) rejectWith(id, proxyID, providerID, member string, sentinel, err error, detail string) error {
	m.metrics.recordRejection(sentinel)
	m.debugLog("subscription rejected", "subscriptionID", id, "providerID", providerID, "reason", detail)
	m.trace.Log(log.Event{
		Timestamp:      m.clock.Now(),
		SubscriptionID: id,
		ProviderID:     providerID,
		ProxyID:        proxyID,
		Member:         member,
		Category:       log.CategoryRejection,
		Rejection:      &log.RejectionEvent{Reason: detail},
	})
	return &SubscriptionError{SubscriptionID: id, DetailMessage: detail, Err: err}
}

// expiredOnArrival applies Config.ExpiredRequests.
func (m *Manager) expiredOnArrival(id, proxyID, providerID, member string) error {
	if m.config.ExpiredRequests == RejectExpired {
		return m.reject(id, proxyID, providerID, member, ErrExpiredOnArrival,
			fmt.Sprintf("SubscriptionRequest %s expired before it arrived", id))
	}
	m.debugLog("expired subscription request dropped", "subscriptionID", id, "providerID", providerID)
	m.forget(id)
	return nil
}

// persist writes through to the store. Failures are logged only.
func (m *Manager) persist(sub StoredSubscription) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(sub); err != nil {
		m.logger.Warn("failed to persist subscription", "subscriptionID", sub.SubscriptionID(), "error", err)
		m.traceStoreError(sub.SubscriptionID(), sub.ProviderID, err, "store save")
	}
}

// forget deletes a persisted request. Failures are logged only.
func (m *Manager) forget(id string) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(id); err != nil {
		m.logger.Warn("failed to delete persisted subscription", "subscriptionID", id, "error", err)
		m.traceStoreError(id, "", err, "store delete")
	}
}

// restore re-admits persisted requests of a newly added provider.
func (m *Manager) restore(providerID string) {
	if m.store == nil {
		return
	}
	stored, err := m.store.Load()
	if err != nil {
		m.logger.Warn("failed to load persisted subscriptions", "providerID", providerID, "error", err)
		m.traceStoreError("", providerID, err, "store load")
		return
	}

	for _, sub := range stored {
		if sub.ProviderID != providerID || m.registry.get(sub.SubscriptionID()) != nil {
			continue
		}

		var err error
		switch {
		case sub.Request != nil:
			_, err = m.admitAttribute(sub.ProxyID, sub.ProviderID, *sub.Request, false)
		case sub.Broadcast != nil:
			_, err = m.admitBroadcast(sub.ProxyID, sub.ProviderID, *sub.Broadcast, false)
		default:
			continue
		}
		if err != nil {
			m.logger.Warn("failed to restore subscription", "subscriptionID", sub.SubscriptionID(), "error", err)
			m.forget(sub.SubscriptionID())
			continue
		}
		m.debugLog("subscription restored", "subscriptionID", sub.SubscriptionID(), "providerID", providerID)
	}
}

func (m *Manager) traceError(s *subscriptionState, err error, context string) {
	ev := s.traceEvent(m.clock.Now(), log.CategoryError)
	ev.Error = &log.ErrorEventData{Message: err.Error(), Context: context}
	m.trace.Log(ev)
}

func (m *Manager) traceStoreError(id, providerID string, err error, context string) {
	m.trace.Log(log.Event{
		Timestamp:      m.clock.Now(),
		SubscriptionID: id,
		ProviderID:     providerID,
		Category:       log.CategoryError,
		Error:          &log.ErrorEventData{Message: err.Error(), Context: context},
	})
}

// debugLog logs a debug message if a logger is configured.
func (m *Manager) debugLog(msg string, args ...any) {
	m.logger.Debug(msg, args...)
}

// undeclaredFilterParameters returns the requested filter parameter names
// the event does not declare, sorted.
func undeclaredFilterParameters(ev provider.Event, params provider.FilterParameters) []string {
	if len(params) == 0 {
		return nil
	}
	declared := make(map[string]bool)
	for _, name := range ev.FilterParameterNames() {
		declared[name] = true
	}

	var missing []string
	for name := range params {
		if !declared[name] {
			missing = append(missing, name)
		}
	}
	sortStrings(missing)
	return missing
}
