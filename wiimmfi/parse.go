package wiimmfi

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/Bitte-ein-Git/wiimmfi-api/dom"
)

// Markup conventions of the stats page. The table is a flat row sequence:
// a header row (id "r<n>") opens a room, the striped tr0/tr1 rows that follow
// belong to it, anything else is structural noise.
const (
	tableRowSelector  = ".table11 tr"
	roomLinkSelector  = "a[data-href*=/stats/mkw/list/r]"
	trackLinkSelector = "a[data-href*=ct.wiimm.de]"
	fcLinkSelector    = "a[data-href*=/stats/mkw/list/p]"
	nameSpanSelector  = "span.mii-font"

	roomIDPrefix   = "r"
	minPlayerCells = 9
)

type rowKind int

const (
	rowIgnore rowKind = iota
	rowHeader
	rowDetail
)

// classifyRow decides whether a table row opens a room, carries a player, or
// is noise. Detail rows only count while a room is open; striped rows before
// the first header are ignored.
func classifyRow(row *html.Node, roomOpen bool) rowKind {
	if strings.HasPrefix(dom.Attr(row, "id"), roomIDPrefix) {
		return rowHeader
	}
	if roomOpen && (dom.HasClass(row, "tr0") || dom.HasClass(row, "tr1")) {
		return rowDetail
	}
	return rowIgnore
}

// parseRoomHeader converts a header row into a Room with no players. Header
// rows are never rejected; unrecoverable fields get their display defaults.
func parseRoomHeader(row *html.Node) Room {
	headerText := dom.Text(row)

	room := Room{
		RoomID:    "Unknown",
		Type:      RoomUnknown,
		Created:   "unknown",
		LastTrack: "—unknown—",
		Players:   []Player{},
	}

	if link := dom.First(row, roomLinkSelector); link != nil {
		room.RoomID = dom.Text(link)
	}

	lower := strings.ToLower(headerText)
	if strings.Contains(lower, "private room") {
		room.Type = RoomPrivate
	} else if strings.Contains(lower, "worldwide room") {
		room.Type = RoomWorldwide
	}

	if created := extractCreated(headerText); created != "" {
		room.Created = created
	}

	if track := dom.First(row, trackLinkSelector); track != nil {
		room.LastTrack = dom.Text(track)
	} else if hash := extractSHA1(headerText); hash != "" {
		room.LastTrack = "SHA1: " + hash
	}

	return room
}

// parsePlayerRow converts a striped detail row into a Player. Rows without
// the friend-code link, the mii-font name span, or the full cell count are
// ornamental and yield no player. That is expected noise, not an error.
func parsePlayerRow(row *html.Node) (Player, bool) {
	cells := dom.Children(row, "td")
	if len(cells) < minPlayerCells {
		return Player{}, false
	}

	fcLink := dom.First(cells[0], fcLinkSelector)
	nameSpan := dom.First(cells[8], nameSpanSelector)
	if fcLink == nil || nameSpan == nil {
		return Player{}, false
	}

	return Player{
		PID:      strings.TrimSpace(strings.TrimPrefix(dom.Attr(cells[0], "title"), "pid=")),
		FC:       dom.Text(fcLink),
		Role:     stripOrdinal(dom.Text(cells[1])),
		Region:   dom.Text(cells[2]),
		RoomMode: dom.Text(cells[3]),
		World:    dom.Text(cells[4]),
		ConnFail: dom.Text(cells[5]),
		EV:       dom.Text(cells[6]),
		EB:       dom.Text(cells[7]),
		Name:     dom.Text(nameSpan),
	}, true
}

// ParseDocument groups the stats table's flat row sequence into rooms.
// Document order is preserved, duplicate room ids are kept distinct, and a
// room closes at the next header row or end of input.
func ParseDocument(doc string) ([]Room, error) {
	root, err := dom.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("wiimmfi: parse document: %w", err)
	}

	var rooms []Room
	var current *Room

	for _, row := range dom.FindAll(root, tableRowSelector) {
		switch classifyRow(row, current != nil) {
		case rowHeader:
			if current != nil {
				rooms = append(rooms, *current)
			}
			room := parseRoomHeader(row)
			current = &room
		case rowDetail:
			if player, ok := parsePlayerRow(row); ok {
				current.Players = append(current.Players, player)
			}
		}
	}
	if current != nil {
		rooms = append(rooms, *current)
	}

	return rooms, nil
}
