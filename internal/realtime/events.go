package realtime

import (
	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/realtime/transport"
)

// subscribe registers fn for event on a channel, decoding the payload
// into T. Frames that do not decode are logged and skipped.
func subscribe[T any](m *Manager, ch ChannelName, event string, fn func(T)) {
	m.on(ch, event, func(f transport.Frame) {
		var v T
		if err := f.Decode(&v); err != nil {
			m.logger.Warn("event payload undecodable", "channel", ch, "event", event, "error", err)
			return
		}
		fn(v)
	})
}

// On registers a raw handler for any event on a channel.
func (m *Manager) On(ch ChannelName, event string, fn func(transport.Frame)) {
	m.on(ch, event, fn)
}

func (m *Manager) on(ch ChannelName, event string, fn func(transport.Frame)) {
	m.hmu.Lock()
	defer m.hmu.Unlock()
	if m.handlers[ch] == nil {
		m.handlers[ch] = make(map[string][]func(transport.Frame))
	}
	m.handlers[ch][event] = append(m.handlers[ch][event], fn)
}

// OnOrderStatusChange subscribes to order-status-changed on the order channel.
func (m *Manager) OnOrderStatusChange(fn func(domain.OrderStatusChange)) {
	subscribe(m, ChannelOrder, EventOrderStatusChanged, fn)
}

// OnKitchenUpdate subscribes to kitchen-update on the kitchen channel.
func (m *Manager) OnKitchenUpdate(fn func(domain.KitchenUpdate)) {
	subscribe(m, ChannelKitchen, EventKitchenUpdate, fn)
}

// OnOrderReady subscribes to order-ready on the kitchen channel.
func (m *Manager) OnOrderReady(fn func(domain.OrderReadyNotice)) {
	subscribe(m, ChannelKitchen, EventOrderReady, fn)
}

// OnTableStatusUpdate subscribes to table-status-update on the general channel.
func (m *Manager) OnTableStatusUpdate(fn func(domain.TableStatus)) {
	subscribe(m, ChannelGeneral, EventTableStatusUpdate, fn)
}

// OnMenuChanged subscribes to menu-changed on the general channel.
func (m *Manager) OnMenuChanged(fn func(domain.MenuChange)) {
	subscribe(m, ChannelGeneral, EventMenuChanged, fn)
}

// OnStatus subscribes to channel state changes. The callback runs on the
// reporting channel's goroutine and must not call Connect or Disconnect
// synchronously.
func (m *Manager) OnStatus(fn func(Status)) {
	m.hmu.Lock()
	defer m.hmu.Unlock()
	m.statusFn = append(m.statusFn, fn)
}

func (m *Manager) dispatch(ch ChannelName, f transport.Frame) {
	m.hmu.RLock()
	handlers := m.handlers[ch][f.Event]
	m.hmu.RUnlock()

	if len(handlers) == 0 {
		m.logger.Debug("unhandled event", "channel", ch, "event", f.Event)
		return
	}
	for _, h := range handlers {
		h(f)
	}
}

func (m *Manager) notify(st Status) {
	m.hmu.RLock()
	fns := m.statusFn
	m.hmu.RUnlock()
	for _, fn := range fns {
		fn(st)
	}
}
