package engine

import (
	"github.com/pythagorasdungeon/server/internal/domain/item"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// BuyItem purchases a catalog item for the hero.
// It returns false, changing nothing, when the item is unknown, already owned
// or unaffordable.
func (e *Engine) BuyItem(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := item.Lookup(id)
	if !ok {
		e.logger.Warn("BuyItem: unknown item " + id)
		return false
	}
	p := &e.state.Player
	if p.Owns(id) || p.Gold < it.Price {
		return false
	}

	p.Gold -= it.Price
	p.Grant(it)
	e.touch()

	metrics.Get().RecordPurchase()
	e.emit(events.EventTypeItemPurchased, "PLAYER", it.ID, map[string]interface{}{
		"price":  it.Price,
		"effect": string(it.Effect),
		"gold":   p.Gold,
	}, "Bought "+it.Name)

	e.persist()
	return true
}
