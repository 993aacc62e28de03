package eventbus

import (
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher is the publishing half of an event bus.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// PublishWithRegionScope publishes msg on a region-suffixed copy of baseTopic so consumers
// can follow a single region.
//
// Example:
//   - baseTopic: "results.report.imported.v1"
//   - region: "4"
//   - result: "results.report.imported.v1.region.4"
//
// Consumers subscribe with "results.report.imported.v1.region.*" for every region.
func PublishWithRegionScope(bus Publisher, baseTopic, region string, msg *message.Message) error {
	if strings.TrimSpace(region) == "" {
		return fmt.Errorf("region cannot be empty for region-scoped publish")
	}
	return bus.Publish(FormatRegionScopedTopic(baseTopic, region), msg)
}

// FormatRegionScopedTopic formats a topic with the region suffix without publishing.
func FormatRegionScopedTopic(baseTopic, region string) string {
	return fmt.Sprintf("%s.region.%s", baseTopic, region)
}
