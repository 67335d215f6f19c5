// Package mqtt mirrors widget state to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect after the first connect
//   - Retained state publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topics
//
//	rice/<widget>/state    last emitted {"class","text","timestamp"}, retained
//	rice/<widget>/status   {"status":"online"|"offline",...}, retained, LWT
//
// Home dashboards subscribe to these instead of polling the devices a
// second time.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) for brokers off the local host
//   - Credentials come from config or RICE_MQTT_USERNAME/RICE_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "ac")
//	if err != nil {
//	    logger.Warn("mqtt unavailable", "error", err)
//	} else {
//	    defer client.Close()
//	    emitter.AddSink(status.NewStateSink(client, logger))
//	}
package mqtt
