package testmodels

import "github.com/go-openapi/strfmt"

type Order struct {

	// Unique identifier for the order.
	// Required: true
	ID *string `json:"id"`

	// Customer the order belongs to. Containers in the tests partition
	// orders on this field.
	// Required: true
	Customer *string `json:"customer"`

	// Current fulfilment status.
	Status string `json:"status,omitempty"`

	// Order total in cents.
	Total int64 `json:"total,omitempty"`

	// Timestamp when the order was placed.
	// Format: date-time
	PlacedAt *strfmt.DateTime `json:"placedAt,omitempty"`
}
