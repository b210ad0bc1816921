package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/broker"
	"go.uber.org/zap"
)

// spawn registers a process whose unexpected failure is logged.
func (e *Engine) spawn(name, owner string, fn scheduler.ProcessFunc) *scheduler.Process {
	return e.sched.Spawn(name, owner, func(p *scheduler.Process) error {
		err := fn(p)
		switch {
		case err == nil:
		case errors.Is(err, scheduler.ErrCancelled):
			e.logger.Debug("process cancelled", zap.String("process", name))
		default:
			e.logger.Warn("process failed", zap.String("process", name), zap.Error(err))
		}
		return err
	})
}

func (e *Engine) spawnAnalyze(ctx context.Context, itemID string) *scheduler.Process {
	return e.spawn("analyze:"+itemID, itemID, func(p *scheduler.Process) error {
		return e.analyze(ctx, p, itemID)
	})
}

// analyze holds the instrument for a randomized duration and stamps the item
// finished.
func (e *Engine) analyze(ctx context.Context, p *scheduler.Process, itemID string) (err error) {
	ctx, span := e.startSpan(ctx, "analyze", map[string]string{"item.id": itemID})
	defer func() { span.End(err) }()
	item, err := e.item(itemID)
	if err != nil {
		return err
	}
	permit, err := e.broker.Acquire(p, broker.Instrument)
	if err != nil {
		return err
	}
	defer func() {
		if rErr := e.broker.Release(p, permit); rErr != nil && err == nil {
			err = rErr
		}
	}()
	if err = p.Advance(e.random.Between(e.config.Analyze.Min, e.config.Analyze.Max)); err != nil {
		return err
	}
	if err = item.Finish(e.Now()); err != nil {
		return err
	}
	e.record(ctx, model.KindItem, item.ID, item.OrderID, model.TransitionFinish, "")
	return nil
}

// Report spawns the process recording a result for a finished item.
func (e *Engine) Report(ctx context.Context, itemID, actorID, value, comment string) *scheduler.Process {
	return e.spawnAction(ctx, policy.ActionReport, itemID, actorID, func(ctx context.Context, item *model.OrderItem, test *model.Test) error {
		normalized, err := e.validateResult(item, test, value)
		if err != nil {
			return err
		}
		if err = item.Report(e.Now(), actorID, normalized, comment); err != nil {
			return err
		}
		e.audit.Record(item, model.TransitionReport, actorID, e.Now())
		e.record(ctx, model.KindItem, item.ID, item.OrderID, model.TransitionReport, actorID)
		return nil
	})
}

// Approve spawns the process approving a reported item. When every open item
// of the order is approved the order is approved by the same actor.
func (e *Engine) Approve(ctx context.Context, itemID, actorID string) *scheduler.Process {
	return e.spawnAction(ctx, policy.ActionApprove, itemID, actorID, func(ctx context.Context, item *model.OrderItem, _ *model.Test) error {
		if err := item.Approve(e.Now(), actorID); err != nil {
			return err
		}
		e.audit.Record(item, model.TransitionApprove, actorID, e.Now())
		e.record(ctx, model.KindItem, item.ID, item.OrderID, model.TransitionApprove, actorID)
		return e.approveOrder(ctx, item.OrderID, actorID)
	})
}

// Update spawns the process re-entering the result of an analysed item. Any
// item approval is cleared, and so is the order approval.
func (e *Engine) Update(ctx context.Context, itemID, actorID, value, comment string) *scheduler.Process {
	return e.spawnAction(ctx, policy.ActionUpdate, itemID, actorID, func(ctx context.Context, item *model.OrderItem, test *model.Test) error {
		if !item.IsActionable() {
			_, err := item.Update(e.Now(), actorID, value, comment)
			return err
		}
		normalized, err := e.validateResult(item, test, value)
		if err != nil {
			return err
		}
		revoked, err := item.Update(e.Now(), actorID, normalized, comment)
		if err != nil {
			return err
		}
		e.audit.Record(item, model.TransitionUpdate, actorID, e.Now())
		e.record(ctx, model.KindItem, item.ID, item.OrderID, model.TransitionUpdate, actorID)
		if !revoked {
			return nil
		}
		order, err := e.order(item.OrderID)
		if err != nil {
			return err
		}
		if order.RevokeApproval() {
			e.record(ctx, model.KindOrder, order.ID, order.ID, model.TransitionRevoke, actorID)
		}
		return nil
	})
}

type itemAction func(ctx context.Context, item *model.OrderItem, test *model.Test) error

// spawnAction models a human action: the actor's role pool is held for the
// duration of an atomic stamp. Checks run in a fixed order: pool capacity,
// actor and role, then entity state.
func (e *Engine) spawnAction(ctx context.Context, action, itemID, actorID string, apply itemAction) *scheduler.Process {
	return e.sched.Spawn(action+":"+itemID, "", func(p *scheduler.Process) (err error) {
		ctx, span := e.startSpan(ctx, action, map[string]string{"item.id": itemID, "actor.id": actorID})
		defer func() {
			span.End(err)
			err = e.refused(action, itemID, err)
		}()
		item, err := e.item(itemID)
		if err != nil {
			return err
		}
		if role := e.policy.RequiredRole(action); role != "" {
			var permit *scheduler.Permit
			if permit, err = e.broker.AcquireRole(p, role); err != nil {
				return err
			}
			defer func() {
				if rErr := e.broker.Release(p, permit); rErr != nil && err == nil {
					err = rErr
				}
			}()
		}
		if _, err = e.authorize(actorID, action); err != nil {
			return err
		}
		order, err := e.order(item.OrderID)
		if err != nil {
			return err
		}
		if order.IsClosed() {
			return invalidOnClosed(action, item, order)
		}
		test, _ := e.catalog.Test(item.TestCode)
		return apply(ctx, item, test)
	})
}

func (e *Engine) validateResult(item *model.OrderItem, test *model.Test, value string) (string, error) {
	if !item.IsActionable() || test == nil {
		return value, nil
	}
	return test.NormalizeValue(value)
}

// approveOrder stamps the order approved once every item that is not
// cancelled is approved. An empty actorID credits the latest item approver.
func (e *Engine) approveOrder(ctx context.Context, orderID, actorID string) error {
	order, err := e.order(orderID)
	if err != nil {
		return err
	}
	if order.State() != model.OrderStateReceived {
		return nil
	}
	var latest *model.OrderItem
	for _, itemID := range order.ItemIDs {
		item, err := e.item(itemID)
		if err != nil {
			return err
		}
		switch item.State() {
		case model.ItemStateCancelled:
		case model.ItemStateApproved:
			if latest == nil || !item.ApprovedAt.Before(*latest.ApprovedAt) {
				latest = item
			}
		default:
			return nil
		}
	}
	if latest == nil {
		return nil
	}
	if actorID == "" {
		actorID = latest.ApproverID
	}
	if err = order.Approve(e.Now(), actorID); err != nil {
		return err
	}
	e.record(ctx, model.KindOrder, order.ID, order.ID, model.TransitionApprove, actorID)
	return nil
}

// CancelItem cancels a single item that is neither approved nor cancelled.
func (e *Engine) CancelItem(ctx context.Context, itemID, actorID string) (err error) {
	ctx, span := e.startSpan(ctx, "cancel-item", map[string]string{"item.id": itemID, "actor.id": actorID})
	defer func() { span.End(err) }()
	item, err := e.item(itemID)
	if err != nil {
		return e.refused(policy.ActionCancel, itemID, err)
	}
	if _, err = e.authorize(actorID, policy.ActionCancel); err != nil {
		return e.refused(policy.ActionCancel, itemID, err)
	}
	if err = item.Cancel(e.Now(), actorID); err != nil {
		return e.refused(policy.ActionCancel, itemID, err)
	}
	e.sched.CancelOwned(item.ID)
	e.record(ctx, model.KindItem, item.ID, item.OrderID, model.TransitionCancel, actorID)
	return e.approveOrder(ctx, item.OrderID, "")
}

func invalidOnClosed(action string, item *model.OrderItem, order *model.Order) error {
	return fmt.Errorf("%w: cannot %s item %s of %s order %s", model.ErrInvalidTransition, action, item.ID, order.State(), order.ID)
}
