// Package document provides the offset-addressed document state the assist
// layer observes and edits: text, a single main selection, versioning, change
// notifications, and position mapping across edits.
//
// The package deliberately knows nothing about rendering or AI features. A
// host editor widget owns the visual document; this type mirrors the part of
// it the assist core needs (spec'd as a mutable character sequence with a
// monotonic change log).
package document
