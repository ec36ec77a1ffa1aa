package model

import "time"

// ActionStatus is the lifecycle state of an action item on this client.
type ActionStatus string

const (
	// StatusPending means the item is waiting for the user to act on it.
	StatusPending ActionStatus = "pending"

	// StatusExecuting means an execute call for the item is in flight.
	StatusExecuting ActionStatus = "executing"

	// StatusCompleted means the backend confirmed the item was executed.
	StatusCompleted ActionStatus = "completed"

	// StatusFailed means the last execute attempt was rejected or never
	// reached the backend. Failed items stay eligible for a manual retry.
	StatusFailed ActionStatus = "failed"
)

// ActionKind identifies what an action item proposes to do. The set is
// open: the backend agent may introduce kinds this client does not know
// about yet, so ActionKind is a plain string tag rather than a closed enum.
type ActionKind string

const (
	KindCreateSalesOrder ActionKind = "create_sales_order"
	KindUpdateSalesOrder ActionKind = "update_sales_order"
	KindNotActionable    ActionKind = "not_actionable"
)

// Provenance carries the fields every action item payload shares: where
// the proposal came from and the agent's summary of it.
type Provenance struct {
	// EmailSubject is the subject line of the source email.
	EmailSubject string `json:"emailSubject"`

	// EmailFrom is the sender address of the source email.
	EmailFrom string `json:"emailFrom"`

	// EmailMessageID is the RFC 5322 message id of the source email.
	EmailMessageID string `json:"emailMessageId"`

	// Summary is the agent's human-readable summary of the proposal.
	Summary string `json:"summary"`

	// OrderNumbers lists any order numbers referenced in the source.
	OrderNumbers []string `json:"orderNumbers,omitempty"`
}

// ActionPayload is the kind-specific data attached to an action item.
// Each implementation carries only the fields relevant to its kind.
type ActionPayload interface {
	// Kind returns the action kind this payload belongs to.
	Kind() ActionKind

	// Common returns the shared provenance fields.
	Common() Provenance
}

// OrderLine is a single proposed line on a sales order.
type OrderLine struct {
	ItemName string  `json:"itemName"`
	ItemUPC  string  `json:"itemUpc,omitempty"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
	UOMName  string  `json:"uomName,omitempty"`
}

// CreateSalesOrderPayload is the proposal to create a new sales order
// from an inbound email.
type CreateSalesOrderPayload struct {
	Provenance

	CustomerName          string      `json:"customerName"`
	CustomerID            string      `json:"customerId,omitempty"`
	CustomerEmail         string      `json:"customerEmail,omitempty"`
	CustomerPhoneNumber   string      `json:"customerPhoneNumber,omitempty"`
	CustomerPurchaseOrder string      `json:"customerPurchaseOrder,omitempty"`
	Items                 []OrderLine `json:"items"`
	StoreID               string      `json:"storeId,omitempty"`
	StoreName             string      `json:"storeName,omitempty"`
	TaxRateID             string      `json:"taxRateId,omitempty"`
	TaxRateName           string      `json:"taxRateName,omitempty"`
	ShippingStreet1       string      `json:"shippingAddressStreet1,omitempty"`
	ShippingCity          string      `json:"shippingAddressCity,omitempty"`
	ShippingState         string      `json:"shippingAddressState,omitempty"`
	ShippingZip           string      `json:"shippingAddressZip,omitempty"`
	ShippingCountry       string      `json:"shippingAddressCountry,omitempty"`
	Note                  string      `json:"note,omitempty"`
	InternalNote          string      `json:"internalNote,omitempty"`
	PaymentTerms          string      `json:"paymentTerms,omitempty"`
	PaymentMethod         string      `json:"paymentMethod,omitempty"`
}

// Kind returns KindCreateSalesOrder.
func (p *CreateSalesOrderPayload) Kind() ActionKind { return KindCreateSalesOrder }

// Common returns the shared provenance fields.
func (p *CreateSalesOrderPayload) Common() Provenance { return p.Provenance }

// UpdateSalesOrderPayload is the proposal to change an existing sales order.
type UpdateSalesOrderPayload struct {
	Provenance

	OrderNumber      string      `json:"orderNumber"`
	RequestedChanges string      `json:"requestedChanges"`
	Items            []OrderLine `json:"items,omitempty"`
	Notes            string      `json:"notes,omitempty"`
}

// Kind returns KindUpdateSalesOrder.
func (p *UpdateSalesOrderPayload) Kind() ActionKind { return KindUpdateSalesOrder }

// Common returns the shared provenance fields.
func (p *UpdateSalesOrderPayload) Common() Provenance { return p.Provenance }

// NotActionablePayload marks an email the agent decided needs a human.
type NotActionablePayload struct {
	Provenance

	Reason string `json:"reason"`
}

// Kind returns KindNotActionable.
func (p *NotActionablePayload) Kind() ActionKind { return KindNotActionable }

// Common returns the shared provenance fields.
func (p *NotActionablePayload) Common() Provenance { return p.Provenance }

// GenericPayload holds the provenance plus the raw data blob for kinds
// this client does not recognize, so new server-side kinds degrade to a
// view-only item instead of a decode failure.
type GenericPayload struct {
	Provenance

	ActionKind ActionKind `json:"-"`
	Raw        []byte     `json:"-"`
}

// Kind returns the server-sent kind tag.
func (p *GenericPayload) Kind() ActionKind { return p.ActionKind }

// Common returns the shared provenance fields.
func (p *GenericPayload) Common() Provenance { return p.Provenance }

// ActionItem is one agent-proposed action attached to a notification.
type ActionItem struct {
	// ID is the backend identifier, stable across fetches.
	ID string `json:"id"`

	// Kind drives the registry lookup and the payload shape.
	Kind ActionKind `json:"kind"`

	// Description is the short text shown on the item card.
	Description string `json:"description"`

	// Status is the current lifecycle state.
	Status ActionStatus `json:"status"`

	// Payload is the kind-specific proposal data.
	Payload ActionPayload `json:"-"`

	// LastError holds the message from the most recent failed execute
	// attempt. Empty unless Status is StatusFailed.
	LastError string `json:"lastError,omitempty"`

	// CreatedAt is when the agent created the item.
	CreatedAt time.Time `json:"createdAt"`

	// CompletedAt is set exactly once, on the transition into
	// StatusCompleted. Nil otherwise.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Actionable reports whether the item can still be executed: pending
// items and failed items (manual retry) qualify.
func (a ActionItem) Actionable() bool {
	return a.Status == StatusPending || a.Status == StatusFailed
}

// Consistent reports whether the item satisfies the completion
// invariant: CompletedAt is set if and only if the item is completed.
func (a ActionItem) Consistent() bool {
	return (a.CompletedAt != nil) == (a.Status == StatusCompleted)
}
