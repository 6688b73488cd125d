// Package model defines the declarative form description (FormSpec) and the
// per-attempt payload the submitter sends. Field specs name both the JSON
// payload key and the surface element the value is read from; transforms
// (trim, number, integer) describe the client-side conversion applied during
// collection. Messages carry every user-facing string a form can show so call
// sites never hard-code copy.
package model
