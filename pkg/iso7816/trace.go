package iso7816

// TRANSACTION:
// A Transaction is one Command APDU (C-APDU) sent by the terminal followed by
// one Response APDU (R-APDU) sent back by the card.
//
// TRACE:
// A Trace is the chronological sequence of Transactions behind one logical
// operation. A DESFire command answered with '91 AF' is continued with INS
// 'AF' until the card returns a final status, so a single "Get Version" is
// three physical transactions. The Trace keeps that whole conversation;
// Status() gives the final outcome and Data() rebuilds the payload.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Status returns the status word of the final response, or 0 when the trace
// holds no response.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Data concatenates the response data of every transaction, in order.
func (t Trace) Data() []byte {
	var out []byte
	for _, tx := range t {
		if tx.Response != nil {
			out = append(out, tx.Response.Data...)
		}
	}
	return out
}
