// Package mqtt connects the BosVes API to an MQTT broker.
//
// Every successful create, update and delete of an incoming wagon is
// published as JSON on bosves/events/incoming-wagon/{action}. Each API
// replica also subscribes to those topics and forwards them to its own
// WebSocket clients, so a browser sees changes made through any replica.
//
// The client reconnects with exponential backoff, restores subscriptions on
// reconnect and maintains a retained status on bosves/system/status, with a
// Last Will so an unexpected disconnect is visible to other services.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.WagonEvent(mqtt.ActionCreated), event)
package mqtt
