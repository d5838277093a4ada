// Package notify implements the real-time order-notification core: the
// push transport, the reconciling in-memory store, and the types shared by
// both. UI consumers read exclusively from the store; they never talk to the
// transport or the backend directly.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category is the closed-set classification of a notification. It determines
// the icon, the detail layout, and which filter tab a notification belongs to.
type Category string

const (
	CategoryOrderCreated       Category = "order_created"
	CategoryOrderStatusChanged Category = "order_status_changed"
	CategoryReturnSubmitted    Category = "return_submitted"
	CategoryReturnApproved     Category = "return_approved"
	CategoryReturnRejected     Category = "return_rejected"
	CategoryReturnCompleted    Category = "return_completed"
	CategoryPaymentReceived    Category = "payment_received"
	CategoryPaymentFailed      Category = "payment_failed"
	CategoryGeneric            Category = "generic"
)

// Group is the coarse classification used by the filter tabs and the detail
// layouts (order / return / payment / generic).
type Group string

const (
	GroupOrder   Group = "order"
	GroupReturn  Group = "return"
	GroupPayment Group = "payment"
	GroupGeneric Group = "generic"
)

// Group returns the filter-tab group for the category.
func (c Category) Group() Group {
	switch c {
	case CategoryOrderCreated, CategoryOrderStatusChanged:
		return GroupOrder
	case CategoryReturnSubmitted, CategoryReturnApproved,
		CategoryReturnRejected, CategoryReturnCompleted:
		return GroupReturn
	case CategoryPaymentReceived, CategoryPaymentFailed:
		return GroupPayment
	default:
		return GroupGeneric
	}
}

// wireCategories is the closed mapping from backend category strings to
// Category values. The backend has grown several spellings for the same
// thing; anything not listed here normalizes to CategoryGeneric so that an
// unrecognized string never reaches rendering logic unmapped.
var wireCategories = map[string]Category{
	"new_order":                CategoryOrderCreated,
	"order_created":            CategoryOrderCreated,
	"order":                    CategoryOrderCreated,
	"order_status_changed":     CategoryOrderStatusChanged,
	"return_request_submitted": CategoryReturnSubmitted,
	"new_return_request":       CategoryReturnSubmitted,
	"return":                   CategoryReturnSubmitted,
	"return_request_approved":  CategoryReturnApproved,
	"return_request_rejected":  CategoryReturnRejected,
	"return_completed":         CategoryReturnCompleted,
	"payment":                  CategoryPaymentReceived,
	"payment_received":         CategoryPaymentReceived,
	"payment_success":          CategoryPaymentReceived,
	"payment_failed":           CategoryPaymentFailed,
}

// CategoryFromWire maps a raw backend category string to a Category,
// falling back to CategoryGeneric for anything unrecognized.
func CategoryFromWire(s string) Category {
	if c, ok := wireCategories[s]; ok {
		return c
	}
	return CategoryGeneric
}

// OrderItem is one line of an order-category notification.
type OrderItem struct {
	Qty   int     `json:"qty"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// LineTotal returns Qty × Price for the item.
func (i OrderItem) LineTotal() float64 {
	return float64(i.Qty) * i.Price
}

// OrderDetails is the payload of an order-group notification.
type OrderDetails struct {
	Items   []OrderItem `json:"items"`
	Address string      `json:"address"`
}

// Subtotal returns the sum of all line totals.
func (d OrderDetails) Subtotal() float64 {
	var sum float64
	for _, it := range d.Items {
		sum += it.LineTotal()
	}
	return sum
}

// ReturnDetails is the payload of a return-group notification.
type ReturnDetails struct {
	Reason          string `json:"reason"`
	Comments        string `json:"comments"`
	RequestedAction string `json:"requestedAction"`
}

// PaymentDetails is the payload of a payment-group notification.
type PaymentDetails struct {
	TransactionID string `json:"transactionId"`
	Gateway       string `json:"gateway"`
	Method        string `json:"method"`
	FailureReason string `json:"failureReason"`
}

// Notification is the canonical unit held by the store. Exactly one of
// Order/Return/Payment is non-nil, chosen by the category's group; generic
// notifications carry none.
type Notification struct {
	ID             string    `json:"id"`
	Category       Category  `json:"category"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	RelatedOrderID string    `json:"relatedOrderId,omitempty"`
	Customer       string    `json:"customer,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`

	Order   *OrderDetails   `json:"order,omitempty"`
	Return  *ReturnDetails  `json:"return,omitempty"`
	Payment *PaymentDetails `json:"payment,omitempty"`
}

// wireNotification mirrors the backend's notification document. Field names
/// follow the Mongo-flavoured API: "_id", camelCase, and a free-form
// "extendedDetails" object whose shape depends on the category.
type wireNotification struct {
	MongoID   string          `json:"_id"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	OrderID   string          `json:"orderId"`
	Customer  string          `json:"customer"`
	Status    string          `json:"status"`
	Amount    float64         `json:"amount"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"createdAt"`
	Timestamp string          `json:"timestamp"`
	Details   json.RawMessage `json:"extendedDetails"`
}

// wireDetails is the superset of every extendedDetails shape; Normalize
// projects it into the typed payload for the notification's group.
type wireDetails struct {
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Items           []OrderItem `json:"items"`
	Address         string      `json:"address"`
	Reason          string      `json:"reason"`
	Comments        string      `json:"comments"`
	RequestedAction string      `json:"requestedAction"`
	TransactionID   string      `json:"transactionId"`
	Gateway         string      `json:"gateway"`
	Method          string      `json:"method"`
	FailureReason   string      `json:"failureReason"`
}

// ParseNotification decodes a raw backend notification object and normalizes
// it into a Notification. It never fails on missing optional fields: an
// absent id is replaced with a fresh UUID so the store's dedupe-by-id
// invariant stays total, and an unparseable timestamp falls back to now.
func ParseNotification(raw []byte) (Notification, error) {
	var w wireNotification
	if err := json.Unmarshal(raw, &w); err != nil {
		return Notification{}, err
	}
	return normalize(w), nil
}

func normalize(w wireNotification) Notification {
	n := Notification{
		ID:             w.MongoID,
		Category:       CategoryFromWire(w.Type),
		Title:          w.Title,
		Message:        w.Message,
		RelatedOrderID: w.OrderID,
		Customer:       w.Customer,
		Status:         w.Status,
		Amount:         w.Amount,
		CreatedAt:      parseWireTime(w.CreatedAt, w.Timestamp),
		Read:           w.Read,
	}
	if n.ID == "" {
		n.ID = w.ID
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	if len(w.Details) > 0 {
		var d wireDetails
		if err := json.Unmarshal(w.Details, &d); err == nil {
			n.Email = d.Email
			n.Phone = d.Phone
			switch n.Category.Group() {
			case GroupOrder:
				n.Order = &OrderDetails{Items: d.Items, Address: d.Address}
			case GroupReturn:
				n.Return = &ReturnDetails{
					Reason:          d.Reason,
					Comments:        d.Comments,
					RequestedAction: d.RequestedAction,
				}
			case GroupPayment:
				n.Payment = &PaymentDetails{
					TransactionID: d.TransactionID,
					Gateway:       d.Gateway,
					Method:        d.Method,
					FailureReason: d.FailureReason,
				}
			}
		}
	}
	return n
}

// parseWireTime parses the first usable timestamp among the candidates,
// defaulting to now. The backend emits RFC 3339 with or without fractional
// seconds depending on the code path that created the record.
func parseWireTime(candidates ...string) time.Time {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}
