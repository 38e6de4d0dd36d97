package port

import "context"

// EInvoiceAck is a document accepted by the e-invoice portal.
type EInvoiceAck struct {
	DocNo string
	IRN   string
}

// EInvoiceFailure is a document the e-invoice portal rejected.
type EInvoiceFailure struct {
	InvoiceNo string
	ErrorCode int
	Message   string
}

// EInvoiceResult is the outcome of one bulk upload.
type EInvoiceResult struct {
	Success []EInvoiceAck
	Failed  []EInvoiceFailure
}

// EInvoiceClient uploads e-invoice JSON to the government IRP.
type EInvoiceClient interface {
	Upload(ctx context.Context, payload []byte) (*EInvoiceResult, error)
}
