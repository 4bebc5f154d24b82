// Package events fans gateway push events out to in-process subscribers,
// matched by event name prefix.
package events
