package demo

import (
	"context"
	"time"
)

// Step is one scripted mutation.
type Step struct {
	Description string
	Apply       func(*Order)
}

// Script returns the mutations played by Run, in order.
func Script() []Step {
	return []Step{
		{"Reprice ink", func(o *Order) { o.Lines.Get(1).Price.SetAmount(9) }},
		{"Add paper", func(o *Order) { o.Lines.Add(&Line{SKU: "paper", Quantity: 5, Price: eur(1)}) }},
		{"Move paper to the front", func(o *Order) { o.Lines.Move(2, 0) }},
		{"Buy more pens", func(o *Order) { o.Lines.Get(1).SetQuantity(4) }},
		{"Leave a note", func(o *Order) { o.SetNote("gift wrap") }},
		{"Drop ink", func(o *Order) { o.Lines.RemoveAt(2) }},
		{"Compute stats", func(o *Order) { o.Stats.Value() }},
		{"Change customer", func(o *Order) { o.SetCustomer(&Customer{Name: "Grace"}) }},
	}
}

// Run applies steps to o, waiting delay between them. each, if set, is
// called just before a step is applied. Run stops early when ctx is done.
func Run(ctx context.Context, o *Order, steps []Step, delay time.Duration, each func(i int, s Step)) error {
	for i, s := range steps {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if each != nil {
			each(i, s)
		}
		s.Apply(o)
	}
	return nil
}

// Serialized returns steps whose mutations run through apply, such as
// arbor.Engine.Apply. A step whose apply fails is skipped.
func Serialized(steps []Step, apply func(func()) error) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		mutate := s.Apply
		out[i] = Step{
			Description: s.Description,
			Apply: func(o *Order) {
				_ = apply(func() { mutate(o) })
			},
		}
	}
	return out
}
