package mqtt

// TopicPrefix is the root of every topic the helpers publish.
const TopicPrefix = "rice"

// StatusTopic carries a widget's online/offline availability.
func StatusTopic(widget string) string {
	return TopicPrefix + "/" + widget + "/status"
}

// StateTopic carries a widget's last emitted state.
func StateTopic(widget string) string {
	return TopicPrefix + "/" + widget + "/state"
}
