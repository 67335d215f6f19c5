// Package gree is a stateless client for the Gree air conditioner LAN
// protocol (version 1).
//
// Every call is one UDP round trip: the request is JSON, encrypted with the
// unit's AES-128 key, wrapped in a JSON envelope and sent to port 7000. The
// reply comes back in the same envelope, encrypted with the same key.
//
// Reads return values in request order:
//
//	c := gree.NewClient(gree.Config{Timeout: 2 * time.Second})
//	ep := gree.Endpoint{Host: "192.168.1.40", ID: "f4911e7aca59", Key: key}
//	vals, err := c.Get(ctx, ep, []gree.Variable{gree.Pow, gree.SetTem})
//	if err != nil {
//	    return err
//	}
//	on, _ := vals[0].AsInt()
//
// Failures are classified by sentinel: ErrTransport, ErrProtocol and
// ErrShape. The first two are transient (IsRetryable). The client never
// retries on its own.
//
// Device discovery and key binding are out of scope; the key must already
// be known.
package gree
