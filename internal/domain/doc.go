// Package domain holds the core types and collaborator interfaces of the
// session console: the session entity model, the remote gateway boundary,
// and the event types flowing to connected consoles.
package domain
