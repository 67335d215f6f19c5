package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementBattery holds raw battery samples.
const MeasurementBattery = "battery"

// WriteBatteryPower records the discharge rate in watts.
//
// Only discharging samples are written; a charging or idle battery
// has no meaningful draw to chart.
//
// Example:
//
//	client.WriteBatteryPower("BAT0", 7.4)
func (c *Client) WriteBatteryPower(device string, watts float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementBattery,
		map[string]string{"device": device},
		map[string]interface{}{"power_watts": watts},
		time.Now(),
	)

	c.writer.WritePoint(point)
}

// WriteBatteryCapacity records the charge level in percent.
func (c *Client) WriteBatteryCapacity(device string, percent int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementBattery,
		map[string]string{"device": device},
		map[string]interface{}{"capacity_percent": percent},
		time.Now(),
	)

	c.writer.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Tags should stay low cardinality. It satisfies status.PointWriter.
//
// Example:
//
//	client.WritePoint("widget_state",
//	    map[string]string{"widget": "ac", "class": "ac-on"},
//	    map[string]any{"text": "", "count": 1})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writer.WritePoint(point)
}
