package model

// ItemSnapshot is a read-only view of an item handed to collaborators.
type ItemSnapshot struct {
	OrderItem
	State       ItemState `json:"state"`
	Label       string    `json:"label,omitempty"`
	TMLTName    string    `json:"tmltName,omitempty"`
	LOINC       string    `json:"loinc,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Flag        string    `json:"flag,omitempty"`
	ValueString string    `json:"valueString"`
}

// NewItemSnapshot copies item and derives its state; test may be nil.
func NewItemSnapshot(item *OrderItem, test *Test) *ItemSnapshot {
	ret := &ItemSnapshot{OrderItem: *item.Clone(), State: item.State(), ValueString: "N/A"}
	if test != nil {
		ret.Label = test.Label
		ret.TMLTName = test.TMLTName
		ret.LOINC = test.LOINC
		ret.Unit = test.Unit
		ret.Flag = test.Flag(item.Value)
		ret.ValueString = test.ValueString(item.Value)
	}
	return ret
}

// OrderSnapshot is a read-only view of an order and its items.
type OrderSnapshot struct {
	Order
	State    OrderState      `json:"state"`
	Customer *Customer       `json:"customer,omitempty"`
	Items    []*ItemSnapshot `json:"items"`
}

// NewOrderSnapshot copies order and derives its state.
func NewOrderSnapshot(order *Order, customer *Customer, items []*ItemSnapshot) *OrderSnapshot {
	ret := &OrderSnapshot{Order: *order.Clone(), State: order.State(), Items: items}
	if customer != nil {
		c := *customer
		ret.Customer = &c
	}
	return ret
}
