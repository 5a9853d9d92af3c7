package models

// Well-known room ids that exist from startup. Default rooms are exempt
// from membership counting, deletion and push-topic subscriptions.
const (
	NewsRoomID          = "berita-kripto"
	AnnouncementsRoomID = "pengumuman-aturan"
	OpportunityRoomID   = "peluang-baru"
)

var defaultRoomIDs = map[string]struct{}{
	NewsRoomID:          {},
	AnnouncementsRoomID: {},
}

// IsDefaultRoomID reports whether id belongs to the fixed default-room set.
func IsDefaultRoomID(id string) bool {
	_, ok := defaultRoomIDs[id]
	return ok
}

// Room is the rooms/{roomId} record in the realtime store. UserCount is
// the authoritative member counter; local copies are optimistic mirrors.
type Room struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UserCount     int    `json:"userCount"`
	CreatedBy     string `json:"createdBy,omitempty"`
	CreatedByID   string `json:"createdById,omitempty"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
	IsDefaultRoom bool   `json:"isDefaultRoom"`
}

// DefaultRooms returns the rooms hardcoded at startup.
func DefaultRooms() []Room {
	return []Room{
		{ID: NewsRoomID, Name: "Berita Kripto", IsDefaultRoom: true},
		{ID: AnnouncementsRoomID, Name: "Pengumuman & Aturan", IsDefaultRoom: true},
	}
}
