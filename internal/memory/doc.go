// Package memory gives agents durable recall between sessions. Notes are
// free text, scoped to a thread, and searchable by substring.
package memory
