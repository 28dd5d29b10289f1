package model

// TransferLink pairs the two legs of one fast-payment transfer.
// A transaction belongs to at most one link; DebitID and CreditID are
// candidate ids of the outgoing and incoming leg respectively.
type TransferLink struct {
	ID       string
	DebitID  string
	CreditID string
}
