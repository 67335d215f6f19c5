// Package status emits status bar updates.
//
// Each update is a single JSON object on its own line:
//
//	{"class":"ac-on","text":""}
//
// The bar picks the icon from class and shows text verbatim. An Emitter
// can also hand every update to sinks that mirror widget state to MQTT or
// InfluxDB.
package status
