// Package wiimmfi scrapes the Wiimmfi Mario Kart Wii live-stats page into a
// structured room/player snapshot and coordinates the slow browser fetch so
// that at most one render cycle runs at a time.
package wiimmfi

import "time"

// RoomType classifies a room from its header text.
type RoomType string

const (
	RoomPrivate   RoomType = "private"
	RoomWorldwide RoomType = "worldwide"
	RoomUnknown   RoomType = "unknown"
)

// Room is one game-session group scraped from the stats table.
type Room struct {
	RoomID string   `json:"room_id"`
	Type   RoomType `json:"type"`
	// Created is the free-text creation timestamp as displayed, or "unknown".
	Created string `json:"created"`
	// LastTrack is a track name, a "SHA1: <hash>" token, or "—unknown—".
	LastTrack string   `json:"last_track"`
	Players   []Player `json:"players"`
}

// Player is one participant row inside a room.
type Player struct {
	PID      string `json:"pid"`
	FC       string `json:"fc"`
	Role     string `json:"role"`
	Region   string `json:"region"`
	RoomMode string `json:"room_mode"`
	World    string `json:"world"`
	ConnFail string `json:"conn_fail"`
	EV       string `json:"ev"`
	EB       string `json:"eb"`
	Name     string `json:"name"`
}

// Snapshot is the current authoritative room list. JSON holds the
// pretty-printed serialization produced once at cycle exit, so every reader
// sees byte-identical output.
type Snapshot struct {
	Rooms     []Room
	FetchedAt time.Time
	Source    string // "live", "fallback" or "empty"
	JSON      []byte
}
