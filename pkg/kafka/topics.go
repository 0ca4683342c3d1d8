package kafka

// TopicPrefix namespaces every topic this module publishes to.
const TopicPrefix = "storefront"

// Topic builds a topic name such as "storefront.order.placed".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
