package mqtt

import "fmt"

// Topic roots.
//
//	bosves/events/incoming-wagon/{created,updated,deleted}
//	bosves/system/status
const (
	TopicPrefixEvents = "bosves/events"
	TopicPrefixSystem = "bosves/system"
)

// Wagon event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// wagonEntity is the topic segment for incoming-wagon events.
const wagonEntity = "incoming-wagon"

// Topics provides builders for BosVes MQTT topics.
//
//	topic := mqtt.Topics{}.WagonEvent(mqtt.ActionCreated)
//	// Returns: "bosves/events/incoming-wagon/created"
type Topics struct{}

// WagonEvent returns the topic for one incoming-wagon action.
func (Topics) WagonEvent(action string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixEvents, wagonEntity, action)
}

// AllWagonEvents matches every incoming-wagon action.
func (Topics) AllWagonEvents() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefixEvents, wagonEntity)
}

// SystemStatus carries the retained online/offline status and the LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ActionFromTopic returns the last segment of an event topic.
func ActionFromTopic(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == '/' {
			return topic[i+1:]
		}
	}
	return topic
}
