package application

// Caller is the explicit capability a consumer presents when invoking
// the aggregation reads. It replaces the ambient "authenticated session"
// gate of the surrounding application with a value passed per call.
//
// An unauthenticated caller is not an error: the aggregation reads
// return empty results so display widgets render an empty chart rather
// than breaking. The risk scan does not take a caller; it runs as a
// system job.
type Caller struct {
	// UserID identifies the authenticated user, empty when anonymous.
	UserID string
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// SystemCaller returns the identity used by internal jobs and tests.
func SystemCaller() Caller { return Caller{UserID: "system"} }
