package otlp

import "strings"

// defaultPort is the conventional OTLP gRPC collector port.
const defaultPort = "4317"

// ParseEndpoint normalizes a collector endpoint to a host:port dial target.
// An http:// or https:// prefix is stripped, and the port defaults to 4317
// when the remainder carries none. The split is on the last colon so IPv6
// literals with an explicit port pass through unchanged.
func ParseEndpoint(endpoint string) string {
	target := strings.TrimPrefix(endpoint, "http://")
	target = strings.TrimPrefix(target, "https://")
	target = strings.TrimSuffix(target, "/")

	if i := strings.LastIndex(target, ":"); i >= 0 && i < len(target)-1 {
		return target
	}
	return strings.TrimSuffix(target, ":") + ":" + defaultPort
}
