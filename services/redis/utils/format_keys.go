package utils

/**
 * This file contains utility functions to format the Redis channel names
 * used by the session bus. It avoids having to call "fmt.Sprintf(...)"
 * with the same format spec every time, potentially confusing the format.
 */

import "fmt"

// FormatBusChannel returns the pub/sub channel of a topic on a named bus
func FormatBusChannel(busName string, topic string) string {
	return fmt.Sprintf("bus:%s:%s", busName, topic)
}
