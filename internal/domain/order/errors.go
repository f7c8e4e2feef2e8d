package order

import "errors"

var (
	// ErrOrderNotFound indicates the order doesn't exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProofNotFound indicates the proof doesn't exist on the order.
	ErrProofNotFound = errors.New("proof not found")
	// ErrInvoiceNotFound indicates the invoice doesn't exist on the order.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrShipmentNotFound indicates the shipment doesn't exist on the order.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrUnknownProject indicates a link target project doesn't exist.
	ErrUnknownProject = errors.New("linked project not found")
	// ErrInvalidInput indicates invalid order input.
	ErrInvalidInput = errors.New("invalid order input")
)
