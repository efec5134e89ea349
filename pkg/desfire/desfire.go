// Package desfire drives MIFARE DESFire cards through wrapped native APDUs.
//
// The layers, bottom-up:
//
//	Transport  one field exchange (pcsc.Reader in production, a script in tests)
//	Client     APDU encoding, status decoding and '91 AF' frame chaining
//	Session    the selected application and one typed call per card command
//
// A Session is owned by one goroutine. Nothing in the package retries: a
// failed exchange is reported to the caller as is.
//
// Example:
//
//	client := desfire.NewClient(desfire.Config{Transport: reader})
//	session := desfire.NewSession(client)
//	if err := session.SelectApplication(desfire.PICC); err != nil {
//		return err
//	}
//	ks, err := session.GetKeySettings()
package desfire
