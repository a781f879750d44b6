package types

import "time"

// Sentinel value for unset room configuration fields (output channel,
// autodraw weekday/hour).
const Unset = -1

// Room is one chat community's configuration record.
type Room struct {
	ID              int64 `json:"id" db:"id"`
	ChannelID       int64 `json:"channel_id" db:"channel_id"`
	AutodrawWeekday int   `json:"autodraw_weekday" db:"autodraw_weekday"` // 0=Monday .. 6=Sunday
	AutodrawHour    int   `json:"autodraw_hour" db:"autodraw_hour"`       // 0..23
}

// AutodrawEnabled reports whether the room has a complete, valid autodraw
// configuration: an output channel plus weekday and hour.
func (r Room) AutodrawEnabled() bool {
	return r.ChannelID != Unset &&
		r.AutodrawWeekday >= 0 && r.AutodrawWeekday <= 6 &&
		r.AutodrawHour >= 0 && r.AutodrawHour <= 23
}

// Entry is one choice submitted by an entrant for the current draw cycle.
type Entry struct {
	Name   string `json:"name" db:"name"` // lower-cased choice name
	First  bool   `json:"first" db:"first"`
	RoomID int64  `json:"room_id" db:"room_id"`
	UserID int64  `json:"user_id" db:"user_id"`
}

// HistoryRecord is the outcome of one entry in one completed draw run.
type HistoryRecord struct {
	Name      string    `json:"name" db:"name"`
	Won       bool      `json:"won" db:"won"`
	RoomID    int64     `json:"room_id" db:"room_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserStats aggregates a user's historical results within a room.
type UserStats struct {
	UserID  int64     `json:"user_id"`
	Entered int       `json:"entered"`
	Wins    int       `json:"wins"`
	LastWin time.Time `json:"last_win,omitzero"`
}

// ChoiceStats aggregates one choice name's historical results within a room.
type ChoiceStats struct {
	Name   string `json:"name"`
	Picked int    `json:"picked"`
	Won    int    `json:"won"`
}
