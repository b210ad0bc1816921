package workflow

import (
	"context"
	"fmt"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/dao/snapshot"
)

// Export copies the entity model into a snapshot record.
func (e *Engine) Export(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	ret := &snapshot.Snapshot{
		Name:        name,
		Seed:        e.config.Seed,
		Now:         e.sched.Now(),
		SavedAt:     e.Now(),
		Versions:    e.audit.Versions(),
		Transitions: e.Transitions(0),
	}
	var err error
	if ret.Random, err = e.random.MarshalBinary(); err != nil {
		return nil, err
	}
	if ret.Customers, err = e.Customers(ctx); err != nil {
		return nil, err
	}
	orders, err := e.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		ret.Orders = append(ret.Orders, order.Clone())
	}
	items, err := e.items.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		ret.Items = append(ret.Items, item.Clone())
	}
	return ret, nil
}

// Import loads a snapshot into an engine with no orders and respawns the
// processes of orders awaiting reception and items awaiting analysis. The
// random source continues the stream of the snapshot seed. The scheduler
// should have been created at the snapshot virtual time.
func (e *Engine) Import(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if orders, items := e.Len(); orders+items > 0 {
		return fmt.Errorf("cannot import into a non-empty engine: %d orders, %d items", orders, items)
	}
	e.config.Seed = snap.Seed
	e.random = scheduler.NewRandom(snap.Seed)
	if len(snap.Random) > 0 {
		if err := e.random.UnmarshalBinary(snap.Random); err != nil {
			return fmt.Errorf("invalid random state in snapshot %s: %w", snap.Name, err)
		}
	}
	if err := e.audit.Restore(snap.Versions); err != nil {
		return err
	}
	for _, customer := range snap.Customers {
		if err := e.RegisterCustomer(ctx, customer); err != nil {
			return err
		}
	}
	orderOf := map[string]*model.Order{}
	for _, order := range snap.Orders {
		clone := order.Clone()
		if err := e.orders.Save(ctx, clone); err != nil {
			return err
		}
		orderOf[clone.ID] = clone
		e.orderIDs.Observe(clone.ID)
	}
	for _, item := range snap.Items {
		if _, ok := orderOf[item.OrderID]; !ok {
			return fmt.Errorf("item %s references unknown order %s", item.ID, item.OrderID)
		}
		if err := e.items.Save(ctx, item.Clone()); err != nil {
			return err
		}
		e.itemIDs.Observe(item.ID)
	}
	for _, order := range orderOf {
		for _, itemID := range order.ItemIDs {
			if _, err := e.item(itemID); err != nil {
				return err
			}
		}
	}
	for _, transition := range snap.Transitions {
		t := *transition
		e.journal = append(e.journal, &t)
	}
	_, err := e.Resume(ctx)
	return err
}
