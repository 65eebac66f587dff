package manager

import "github.com/cliair-memcore/memcore/memtypes"

// OnEvent registers cb to be invoked with a fully materialised Event
// snapshot after every successful RecordEvent, per spec.md §6. The
// returned function unsubscribes cb.
func (m *Manager) OnEvent(cb func(memtypes.Event)) func() {
	m.observerMu.Lock()
	id := m.nextObserverID
	m.nextObserverID++
	m.observers[id] = cb
	m.observerMu.Unlock()

	return func() {
		m.observerMu.Lock()
		delete(m.observers, id)
		m.observerMu.Unlock()
	}
}

// notifyObservers fans out ev to every subscriber. Per spec.md §7,
// observer-callback errors (here, panics) are caught and logged but never
// fail the enclosing write — callbacks run synchronously but are each
// individually recovered.
func (m *Manager) notifyObservers(ev memtypes.Event) {
	m.observerMu.Lock()
	callbacks := make([]func(memtypes.Event), 0, len(m.observers))
	for _, cb := range m.observers {
		callbacks = append(callbacks, cb)
	}
	m.observerMu.Unlock()

	for _, cb := range callbacks {
		m.invokeObserver(cb, ev)
	}
}

func (m *Manager) invokeObserver(cb func(memtypes.Event), ev memtypes.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("observer callback panicked", "recover", r, "event_id", ev.ID)
		}
	}()
	cb(ev)
}
