// Command labsim drives a lab order simulation: it submits orders, runs the
// scheduler until idle and prints the resulting transitions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/viant/labflow"
	"github.com/viant/labflow/model"
)

var exitFunc = os.Exit

type options struct {
	config   string
	orders   int
	tests    string
	seed     int64
	customer string
	finalize bool
	save     bool
	load     string
	format   string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "labsim:", err)
		exitFunc(1)
	}
}

func parse(args []string) (*options, error) {
	ret := &options{}
	set := flag.NewFlagSet("labsim", flag.ContinueOnError)
	set.StringVar(&ret.config, "config", "", "YAML config URL")
	set.IntVar(&ret.orders, "orders", 3, "number of orders to submit")
	set.StringVar(&ret.tests, "tests", "CBC,GLU", "comma separated test codes per order")
	set.Int64Var(&ret.seed, "seed", -1, "random seed override")
	set.StringVar(&ret.customer, "customer", "1001", "customer HN")
	set.BoolVar(&ret.finalize, "finalize", false, "report and approve every finished item")
	set.BoolVar(&ret.save, "save", false, "save a snapshot to the configured store")
	set.StringVar(&ret.load, "load", "", "load the named snapshot before submitting")
	set.StringVar(&ret.format, "format", "text", "output format: text or json")
	if err := set.Parse(args); err != nil {
		return nil, err
	}
	if ret.orders < 0 {
		return nil, fmt.Errorf("invalid -orders %d", ret.orders)
	}
	if ret.format != "text" && ret.format != "json" {
		return nil, fmt.Errorf("unsupported -format %q", ret.format)
	}
	return ret, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parse(args)
	if err != nil {
		return err
	}
	config := labflow.DefaultConfig()
	if opts.config != "" {
		if config, err = labflow.LoadConfig(ctx, opts.config); err != nil {
			return err
		}
	}
	if err = config.ApplyEnv(); err != nil {
		return err
	}
	if opts.seed >= 0 {
		config.Seed = uint64(opts.seed)
	}
	svc, err := labflow.New(ctx, labflow.WithConfig(config))
	if err != nil {
		return err
	}
	defer svc.Close()

	if opts.load != "" {
		if err = svc.Load(ctx, opts.load); err != nil {
			return err
		}
	} else if err = svc.RegisterCustomer(ctx, &model.Customer{HN: opts.customer}); err != nil {
		return err
	}
	after := len(svc.Transitions(0))
	codes := strings.Split(opts.tests, ",")
	for i := 0; i < opts.orders; i++ {
		if _, err = svc.SubmitOrder(ctx, opts.customer, codes); err != nil {
			return err
		}
	}
	if err = svc.RunUntilIdle(ctx); err != nil {
		return err
	}
	if opts.finalize {
		if err = finalize(ctx, svc); err != nil {
			return err
		}
	}
	if opts.save {
		if err = svc.Save(ctx); err != nil {
			return err
		}
	}
	return write(out, opts.format, svc.Transitions(after))
}

// finalize reports a value inside the reference range for every finished
// item and approves it, using the first eligible actors.
func finalize(ctx context.Context, svc *labflow.Service) error {
	reporters := svc.Actors().WithRole(model.RoleReporter)
	approvers := svc.Actors().WithRole(model.RoleApprover)
	if len(reporters) == 0 || len(approvers) == 0 {
		return fmt.Errorf("%w: finalize needs a reporter and an approver", labflow.ErrNoEligibleActor)
	}
	items, err := svc.Items(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.State != model.ItemStateFinished {
			continue
		}
		test, _ := svc.Catalog().Test(item.TestCode)
		if err = svc.Report(ctx, item.ID, reporters[0].ID, sampleValue(test), ""); err != nil {
			return err
		}
		err = svc.Approve(ctx, item.ID, approvers[0].ID)
		if err != nil && !errors.Is(err, labflow.ErrInvalidTransition) {
			return err
		}
	}
	return nil
}

func sampleValue(test *model.Test) string {
	if test == nil {
		return ""
	}
	if !test.IsQuantitative() {
		if len(test.ValueChoices) > 0 {
			return test.ValueChoices[len(test.ValueChoices)-1]
		}
		return "N/A"
	}
	low, high := 0.0, 1.0
	if test.RefMin != nil {
		low = *test.RefMin
	}
	if test.RefMax != nil {
		high = *test.RefMax
	}
	if high < low {
		high = low
	}
	return strconv.FormatFloat((low+high)/2, 'f', -1, 64)
}

func write(out io.Writer, format string, transitions []*model.Transition) error {
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(transitions)
	}
	for _, t := range transitions {
		if _, err := fmt.Fprintf(out, "%s %-5s %-8s %-8s %s\n", t.OccurredAt.Format("2006-01-02T15:04:05"), t.Kind, t.EntityID, t.Name, t.ActorID); err != nil {
			return err
		}
	}
	return nil
}
