// Package domain contains the core business entities of the application,
// independent of storage, transport, and rendering concerns.
package domain
