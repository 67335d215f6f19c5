// Package influxdb keeps a history of widget output in InfluxDB.
//
// A status bar only shows the present moment. When the influxdb section
// of the config is enabled, every helper also queues:
//   - one widget_state point per emitted line (through status.MetricSink)
//   - battery power draw and capacity samples from the battery helper
//
// History is optional. Connect fails fast when the server is away, and
// the helper carries on printing without it:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    logger.Warn("InfluxDB unavailable", "error", err)
//	} else {
//	    defer client.Close()
//	    client.WriteBatteryCapacity("BAT0", 87)
//	}
//
// Writes never block. Failed batches arrive at the SetOnError callback.
package influxdb
