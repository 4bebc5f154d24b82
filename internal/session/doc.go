// Package session persists conversation threads and their messages in
// SQLite, along with opaque per-thread provider state.
package session
