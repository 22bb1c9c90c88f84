// Package demo holds a small observable shop model and a scripted series of
// mutations, used by the CLI to show a shadow tree at work.
package demo

import "github.com/aretw0/arbor/pkg/observable"

type Money struct {
	observable.PropertySource
	Currency string
	Amount   int
}

func (m *Money) SetAmount(v int) {
	m.Amount = v
	m.Raise(m, "Amount")
}

type Line struct {
	observable.PropertySource
	SKU      string
	Quantity int
	Price    *Money
}

func (l *Line) SetQuantity(v int) {
	l.Quantity = v
	l.Raise(l, "Quantity")
}

type Customer struct {
	observable.PropertySource
	Name string
}

// Stats is computed on first use.
type Stats struct {
	Lines int
	Total int
}

type Order struct {
	observable.PropertySource
	ID       string
	Customer *Customer
	Lines    *observable.Collection[*Line]
	Note     any
	Stats    *observable.Lazy[*Stats]
	Token    string `arbor:"-"`
}

func (o *Order) SetCustomer(c *Customer) {
	o.Customer = c
	o.Raise(o, "Customer")
}

func (o *Order) SetNote(v any) {
	o.Note = v
	o.Raise(o, "Note")
}

// Total sums quantity times amount over every line.
func (o *Order) Total() int {
	total := 0
	for _, l := range o.Lines.Items() {
		if l.Price != nil {
			total += l.Quantity * l.Price.Amount
		}
	}
	return total
}

func eur(amount int) *Money {
	return &Money{Currency: "EUR", Amount: amount}
}

// NewOrder returns an order with two lines and unmaterialized stats.
func NewOrder() *Order {
	o := &Order{
		ID:       "A-1001",
		Customer: &Customer{Name: "Ada"},
		Lines: observable.NewCollection(
			&Line{SKU: "pen", Quantity: 2, Price: eur(3)},
			&Line{SKU: "ink", Quantity: 1, Price: eur(7)},
		),
		Token: "secret",
	}
	o.Stats = observable.NewLazy(func() *Stats {
		return &Stats{Lines: o.Lines.Len(), Total: o.Total()}
	})
	return o
}
