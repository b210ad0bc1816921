package workflow

import (
	"context"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/service/dao"
)

// OrderSnapshot returns a copy of the order with its items.
func (e *Engine) OrderSnapshot(id string) (*model.OrderSnapshot, error) {
	order, err := e.order(id)
	if err != nil {
		return nil, err
	}
	return e.orderSnapshot(order)
}

func (e *Engine) orderSnapshot(order *model.Order) (*model.OrderSnapshot, error) {
	items := make([]*model.ItemSnapshot, 0, len(order.ItemIDs))
	for _, itemID := range order.ItemIDs {
		item, err := e.item(itemID)
		if err != nil {
			return nil, err
		}
		test, _ := e.catalog.Test(item.TestCode)
		items = append(items, model.NewItemSnapshot(item, test))
	}
	customer, _ := e.customers.Load(context.Background(), order.CustomerID)
	return model.NewOrderSnapshot(order, customer, items), nil
}

// ItemSnapshot returns a copy of the item.
func (e *Engine) ItemSnapshot(id string) (*model.ItemSnapshot, error) {
	item, err := e.item(id)
	if err != nil {
		return nil, err
	}
	test, _ := e.catalog.Test(item.TestCode)
	return model.NewItemSnapshot(item, test), nil
}

// History returns the item versions, oldest first.
func (e *Engine) History(id string) ([]*model.Version, error) {
	if _, err := e.item(id); err != nil {
		return nil, err
	}
	return e.audit.History(id), nil
}

// Diff renders a unified diff between two versions of an item.
func (e *Engine) Diff(id string, from, to int) (string, error) {
	if _, err := e.item(id); err != nil {
		return "", err
	}
	return e.audit.Diff(id, from, to)
}

// Orders lists order snapshots in submission order. A "State" parameter
// filters by order state.
func (e *Engine) Orders(ctx context.Context, parameters ...*dao.Parameter) ([]*model.OrderSnapshot, error) {
	orders, err := e.orders.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.OrderSnapshot, 0, len(orders))
	for _, order := range orders {
		snapshot, err := e.orderSnapshot(order)
		if err != nil {
			return nil, err
		}
		ret = append(ret, snapshot)
	}
	return ret, nil
}

// Items lists item snapshots in submission order. A "State" parameter
// filters by item state.
func (e *Engine) Items(ctx context.Context, parameters ...*dao.Parameter) ([]*model.ItemSnapshot, error) {
	items, err := e.items.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.ItemSnapshot, 0, len(items))
	for _, item := range items {
		test, _ := e.catalog.Test(item.TestCode)
		ret = append(ret, model.NewItemSnapshot(item, test))
	}
	return ret, nil
}

// Customers lists registered customers in registration order.
func (e *Engine) Customers(ctx context.Context) ([]*model.Customer, error) {
	customers, err := e.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Customer, 0, len(customers))
	for _, customer := range customers {
		c := *customer
		ret = append(ret, &c)
	}
	return ret, nil
}

// Transitions returns copies of the journal entries with a sequence number
// greater than after.
func (e *Engine) Transitions(after int) []*model.Transition {
	if after < 0 {
		after = 0
	}
	if after >= len(e.journal) {
		return nil
	}
	ret := make([]*model.Transition, 0, len(e.journal)-after)
	for _, transition := range e.journal[after:] {
		t := *transition
		ret = append(ret, &t)
	}
	return ret
}

// Len returns the number of orders and items.
func (e *Engine) Len() (orders, items int) {
	return e.orders.Len(), e.items.Len()
}
