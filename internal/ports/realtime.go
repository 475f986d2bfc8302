package ports

// MetadataBus delivers backend change notifications for session-dependent
// records. Subscriptions are best-effort: a lost connection drops events
// rather than erroring, and consumers converge via explicit refresh.
type MetadataBus interface {
	// SubscribeProfile invokes fn whenever the given user's profile changes.
	SubscribeProfile(userID string, fn func()) (unsubscribe func(), err error)
	// SubscribeHousehold invokes fn whenever the given household's membership
	// or record changes.
	SubscribeHousehold(householdID string, fn func()) (unsubscribe func(), err error)
}
