package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/broker"
	"github.com/viant/labflow/service/dao"
	"go.uber.org/zap"
)

// RegisterCustomer adds or replaces a customer. An empty id defaults to the
// HN.
func (e *Engine) RegisterCustomer(ctx context.Context, customer *model.Customer) error {
	if customer == nil {
		return dao.ErrNilEntity
	}
	clone := *customer
	if clone.ID == "" {
		clone.ID = clone.HN
	}
	return e.customers.Save(ctx, &clone)
}

// Customer returns a customer by id, falling back to a lookup by HN.
func (e *Engine) Customer(id string) (*model.Customer, error) {
	if customer, err := e.customers.Load(context.Background(), id); err == nil {
		return customer, nil
	}
	customers, _ := e.customers.List(context.Background())
	for _, customer := range customers {
		if customer.HN == id {
			return customer, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownCustomer, id)
}

// Submit creates an order with one item per distinct test code, in first
// occurrence order, and spawns its check-in process.
func (e *Engine) Submit(ctx context.Context, customerID string, testCodes []string) (string, error) {
	var codes []string
	seen := map[string]bool{}
	for _, code := range testCodes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return "", e.refused(model.TransitionSubmit, customerID, model.ErrEmptyOrder)
	}
	for _, code := range codes {
		if _, err := e.catalog.Lookup(code); err != nil {
			return "", e.refused(model.TransitionSubmit, customerID, err)
		}
	}
	customer, err := e.Customer(customerID)
	if err != nil {
		return "", e.refused(model.TransitionSubmit, customerID, err)
	}

	order := &model.Order{
		ID:         e.orderIDs.Next(),
		CustomerID: customer.ID,
		OrderedAt:  e.Now(),
	}
	items := make([]*model.OrderItem, 0, len(codes))
	for _, code := range codes {
		item := &model.OrderItem{ID: e.itemIDs.Next(), OrderID: order.ID, TestCode: code}
		order.ItemIDs = append(order.ItemIDs, item.ID)
		items = append(items, item)
	}
	if err = e.orders.Save(ctx, order); err != nil {
		return "", err
	}
	for _, item := range items {
		if err = e.items.Save(ctx, item); err != nil {
			return "", err
		}
	}
	e.record(ctx, model.KindOrder, order.ID, order.ID, model.TransitionSubmit, "")
	e.spawnCheckIn(ctx, order.ID)
	return order.ID, nil
}

func (e *Engine) spawnCheckIn(ctx context.Context, orderID string) *scheduler.Process {
	return e.spawn("check-in:"+orderID, orderID, func(p *scheduler.Process) error {
		return e.checkIn(ctx, p, orderID)
	})
}

// checkIn holds the reception desk for a randomized duration, stamps the
// order received and spawns one analysis per open item.
func (e *Engine) checkIn(ctx context.Context, p *scheduler.Process, orderID string) (err error) {
	ctx, span := e.startSpan(ctx, "check-in", map[string]string{"order.id": orderID})
	defer func() { span.End(err) }()
	order, err := e.order(orderID)
	if err != nil {
		return err
	}
	permit, err := e.broker.Acquire(p, broker.Reception)
	if err != nil {
		return err
	}
	defer func() {
		if rErr := e.broker.Release(p, permit); rErr != nil && err == nil {
			err = rErr
		}
	}()
	if err = p.Advance(e.random.Between(e.config.CheckIn.Min, e.config.CheckIn.Max)); err != nil {
		return err
	}
	if err = order.Receive(e.Now()); err != nil {
		return err
	}
	e.record(ctx, model.KindOrder, order.ID, order.ID, model.TransitionReceive, "")
	for _, itemID := range order.ItemIDs {
		item, err := e.item(itemID)
		if err != nil {
			return err
		}
		if item.State() != model.ItemStatePending {
			continue
		}
		e.spawnAnalyze(ctx, item.ID)
	}
	return nil
}

// RejectOrder closes a non-terminal order with a reason and cascades the
// cancellation onto its items.
func (e *Engine) RejectOrder(ctx context.Context, orderID, actorID, reason, comment string) error {
	return e.close(ctx, policy.ActionReject, orderID, actorID, func(order *model.Order) error {
		return order.Reject(e.Now(), actorID, reason, comment)
	})
}

// CancelOrder closes a non-terminal order and cascades the cancellation onto
// its items.
func (e *Engine) CancelOrder(ctx context.Context, orderID, actorID string) error {
	return e.close(ctx, policy.ActionCancel, orderID, actorID, func(order *model.Order) error {
		return order.Cancel(e.Now(), actorID)
	})
}

func (e *Engine) close(ctx context.Context, action, orderID, actorID string, apply func(order *model.Order) error) (err error) {
	ctx, span := e.startSpan(ctx, action+"-order", map[string]string{"order.id": orderID, "actor.id": actorID})
	defer func() { span.End(err) }()
	order, err := e.order(orderID)
	if err != nil {
		return e.refused(action, orderID, err)
	}
	if _, err = e.authorize(actorID, action); err != nil {
		return e.refused(action, orderID, err)
	}
	if err = apply(order); err != nil {
		return e.refused(action, orderID, err)
	}
	e.record(ctx, model.KindOrder, order.ID, order.ID, action, actorID)
	e.sched.CancelOwned(order.ID)
	cancelled := 0
	for _, itemID := range order.ItemIDs {
		item, err := e.item(itemID)
		if err != nil {
			return err
		}
		switch item.State() {
		case model.ItemStateApproved, model.ItemStateCancelled:
			continue
		}
		if err = item.Cancel(e.Now(), actorID); err != nil {
			return err
		}
		e.sched.CancelOwned(item.ID)
		e.record(ctx, model.KindItem, item.ID, order.ID, model.TransitionCancel, actorID)
		cancelled++
	}
	e.logger.Info("order closed", zap.String("order", order.ID), zap.String("action", action), zap.Int("cancelledItems", cancelled))
	return nil
}

// Resume respawns the check-in and analysis processes of orders and items
// still waiting on reception or analysis that no live process serves, as
// after a restore or an aborted run. It returns the number of processes
// spawned.
func (e *Engine) Resume(ctx context.Context) (int, error) {
	served := map[string]bool{}
	for _, p := range e.sched.Live() {
		served[p.Owner] = true
	}
	orders, err := e.orders.List(ctx)
	if err != nil {
		return 0, err
	}
	spawned := 0
	for _, order := range orders {
		switch order.State() {
		case model.OrderStatePending:
			if !served[order.ID] {
				e.spawnCheckIn(ctx, order.ID)
				spawned++
			}
		case model.OrderStateReceived:
			for _, itemID := range order.ItemIDs {
				item, err := e.item(itemID)
				if err != nil {
					return spawned, err
				}
				if item.State() == model.ItemStatePending && !served[item.ID] {
					e.spawnAnalyze(ctx, item.ID)
					spawned++
				}
			}
		}
	}
	if spawned > 0 {
		e.logger.Info("processes resumed", zap.Int("count", spawned))
	}
	return spawned, nil
}
