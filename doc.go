// Package labflow is a discrete-event workflow engine for a clinical
// laboratory order pipeline.
//
// An order submitted for a customer holds one item per ordered test. Check-in
// contends for the reception desk, analysis for the instrument and every
// human action for the staff pool of its role. Processes run cooperatively on
// a virtual clock, so a run with a fixed seed is reproducible.
//
// Usage:
//
//	svc, err := labflow.New(ctx)
//	orderID, err := svc.SubmitOrder(ctx, "1001", []string{"CBC", "GLU"})
//	err = svc.RunUntilIdle(ctx)
//	order, err := svc.Order(ctx, orderID)
//	err = svc.Report(ctx, order.Items[0].ID, "U-1", "7.2", "")
//	err = svc.Approve(ctx, order.Items[0].ID, "U-2")
package labflow
