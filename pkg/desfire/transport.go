package desfire

// Transport performs one request/response exchange with the card.
//
// activateField asks the adapter to (re)power the field before sending, which
// returns the card to the PICC level. keepFieldOn asks it to leave the field up
// afterwards. A transport that gives up waiting must return an error matching
// ErrTimeout.
type Transport interface {
	Exchange(activateField, keepFieldOn bool, req []byte) ([]byte, error)
}
