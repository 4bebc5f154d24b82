// Package dedupe suppresses duplicate message deliveries. Channels can
// redeliver messages after reconnects, so inbound ids are tracked in a
// TTL-bounded, size-capped set.
package dedupe
