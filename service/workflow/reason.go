package workflow

import (
	"errors"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/dao"
)

// Reason maps a refused transition error to a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrNoEligibleActor):
		return "no_eligible_actor"
	case errors.Is(err, model.ErrUnauthorizedTransition):
		return "unauthorized"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrUnknownActor):
		return "unknown_actor"
	case errors.Is(err, model.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, model.ErrUnknownTest):
		return "unknown_test"
	case errors.Is(err, model.ErrUnknownCustomer):
		return "unknown_customer"
	case errors.Is(err, model.ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, dao.ErrNotFound):
		return "not_found"
	case errors.Is(err, scheduler.ErrCancelled):
		return "cancelled"
	}
	return "other"
}
