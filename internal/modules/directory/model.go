// README: Party directory; the identity metadata reports join against.
package directory

import (
	"errors"
	"time"

	"freightdesk/internal/types"
)

type Kind string

const (
	KindBroker     Kind = "broker"
	KindDriver     Kind = "driver"
	KindDispatcher Kind = "dispatcher"
	KindOwner      Kind = "owner"
	KindCarrier    Kind = "carrier"
	KindTruck      Kind = "truck"
)

// Party is any named entity a trip references: broker, driver, dispatcher,
// owner, carrier, or a piece of equipment.
type Party struct {
	ID          types.ID  `json:"id"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrNotFound   = errors.New("party not found")
	ErrValidation = errors.New("party validation failed")
)

// ParseKind maps an incoming string onto a known Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBroker, KindDriver, KindDispatcher, KindOwner, KindCarrier, KindTruck:
		return Kind(s), true
	}
	return "", false
}
