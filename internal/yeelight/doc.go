// Package yeelight controls Yeelight bulbs over their LAN protocol.
//
// Requests are single JSON lines sent over TCP to port 55443:
//
//	{"id":1,"method":"get_prop","params":["power","bg_power"]}
//
// and the bulb answers with a line carrying either "result" or "error".
// LAN control must be enabled in the Yeelight app.
package yeelight
