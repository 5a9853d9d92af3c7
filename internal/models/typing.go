package models

// TypingStatus is the ephemeral typing/{roomId}/{userId} record. It is
// only valid while now - Timestamp is under the typing timeout; readers
// must filter stale entries regardless of whether the record was cleaned
// up remotely.
type TypingStatus struct {
	Username         string `json:"username"`
	UserCreationDate int64  `json:"userCreationDate"`
	Timestamp        int64  `json:"timestamp"`
}
