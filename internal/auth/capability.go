package auth

// Capability identifies the principal a storage call is executed on behalf of.
// The storage layer accepts mutations only when the capability principal matches
// the admin principal recorded in ledger_state; there is no ambient privileged
// caller. Services mint their engine capability once at startup and thread it
// through every call.
type Capability struct {
	Principal int64
}

// CapabilityFor wraps a raw account id. Kept as a constructor so call sites read
// as intent rather than struct literals.
func CapabilityFor(principal int64) Capability {
	return Capability{Principal: principal}
}
