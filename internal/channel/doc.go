// Package channel defines the surfaces users talk to an agent through.
package channel
