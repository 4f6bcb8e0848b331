package game

import (
	"sort"
	"strings"
)

const (
	RoomStudy        = "study"
	RoomHall         = "hall"
	RoomLounge       = "lounge"
	RoomLibrary      = "library"
	RoomBilliard     = "billiard"
	RoomDining       = "dining"
	RoomConservatory = "conservatory"
	RoomBallroom     = "ballroom"
	RoomKitchen      = "kitchen"

	// псевдо-локация до первого хода
	LocationStart = "start"
)

type LocationKind string

const (
	KindStart   LocationKind = "start"
	KindHallway LocationKind = "hallway"
	KindRoom    LocationKind = "room"
)

var Rooms = []string{
	RoomStudy, RoomHall, RoomLounge,
	RoomLibrary, RoomBilliard, RoomDining,
	RoomConservatory, RoomBallroom, RoomKitchen,
}

// коридоры названы по двум комнатам, которые соединяют: roomA_roomB
var Hallways = []string{
	"study_hall",
	"hall_lounge",
	"library_billiard",
	"billiard_dining",
	"conservatory_ballroom",
	"ballroom_kitchen",
	"study_library",
	"hall_billiard",
	"lounge_dining",
	"library_conservatory",
	"billiard_ballroom",
	"dining_kitchen",
}

// тайные ходы симметричны
var secretPassages = map[string]string{
	RoomStudy:        RoomKitchen,
	RoomKitchen:      RoomStudy,
	RoomLounge:       RoomConservatory,
	RoomConservatory: RoomLounge,
}

// у каждого персонажа ровно один стартовый коридор
var startingHallways = map[Card]string{
	"Miss Scarlet":    "hall_lounge",
	"Colonel Mustard": "lounge_dining",
	"Mrs. White":      "ballroom_kitchen",
	"Mr. Green":       "conservatory_ballroom",
	"Mrs. Peacock":    "library_conservatory",
	"Professor Plum":  "study_library",
}

// смежность комнат и коридоров вычисляется из имен коридоров
var roomHallways = func() map[string][]string {
	m := make(map[string][]string, len(Rooms))
	for _, h := range Hallways {
		a, b := hallwayRooms(h)
		m[a] = append(m[a], h)
		m[b] = append(m[b], h)
	}
	return m
}()

func hallwayRooms(hallway string) (string, string) {
	parts := strings.SplitN(hallway, "_", 2)
	invariant(len(parts) == 2, "malformed hallway name %q", hallway)
	return parts[0], parts[1]
}

func IsRoom(loc string) bool {
	for _, r := range Rooms {
		if r == loc {
			return true
		}
	}
	return false
}

func IsHallway(loc string) bool {
	for _, h := range Hallways {
		if h == loc {
			return true
		}
	}
	return false
}

// AdjacentRooms - две комнаты, которые соединяет коридор
func AdjacentRooms(hallway string) []string {
	a, b := hallwayRooms(hallway)
	return []string{a, b}
}

// AdjacentHallways - коридоры, примыкающие к комнате
func AdjacentHallways(room string) []string {
	return append([]string(nil), roomHallways[room]...)
}

// SecretPassage возвращает комнату на другом конце тайного хода
func SecretPassage(room string) (string, bool) {
	dest, ok := secretPassages[room]
	return dest, ok
}

// StartingHallway - коридор рядом со стартовой точкой персонажа
func StartingHallway(character Card) (string, bool) {
	h, ok := startingHallways[character]
	return h, ok
}

type Position struct {
	Location string       `json:"location"`
	Kind     LocationKind `json:"kind"`
}

// MoveCheck - результат проверки хода
type MoveCheck struct {
	Allowed          bool         `json:"allowed"`
	Kind             LocationKind `json:"kind,omitempty"`
	ViaSecretPassage bool         `json:"via_secret_passage,omitempty"`
}

// MoveOption - допустимое направление хода
type MoveOption struct {
	Destination      string       `json:"destination"`
	Kind             LocationKind `json:"kind"`
	ViaSecretPassage bool         `json:"via_secret_passage,omitempty"`
	StayInRoom       bool         `json:"stay_in_room,omitempty"`
	CanSuggest       bool         `json:"can_suggest"`
}

// Board - занятость поля. Статическая топология задана выше.
// Синхронизацию обеспечивает владеющая сессия.
type Board struct {
	rooms     map[string][]string
	hallways  map[string]string
	positions map[string]Position
}

func NewBoard() *Board {
	b := &Board{
		rooms:     make(map[string][]string, len(Rooms)),
		hallways:  make(map[string]string, len(Hallways)),
		positions: make(map[string]Position),
	}
	for _, r := range Rooms {
		b.rooms[r] = nil
	}
	for _, h := range Hallways {
		b.hallways[h] = ""
	}
	return b
}

// PlaceAtStart ставит игрока на стартовую псевдо-локацию
func (b *Board) PlaceAtStart(playerID string) {
	_, exists := b.positions[playerID]
	invariant(!exists, "player %s already on board", playerID)
	b.positions[playerID] = Position{Location: LocationStart, Kind: KindStart}
}

func (b *Board) Position(playerID string) (Position, bool) {
	p, ok := b.positions[playerID]
	return p, ok
}

// HallwayOccupant возвращает игрока в коридоре или пустую строку
func (b *Board) HallwayOccupant(hallway string) string {
	return b.hallways[hallway]
}

// RoomOccupants возвращает копию списка игроков в комнате
func (b *Board) RoomOccupants(room string) []string {
	return append([]string(nil), b.rooms[room]...)
}

// ValidMove проверяет ход игрока. Всегда читает текущую занятость.
func (b *Board) ValidMove(playerID string, character Card, movedBySuggestion bool, dest string) MoveCheck {
	cur, ok := b.positions[playerID]
	if !ok {
		return MoveCheck{}
	}

	// 1. со старта - только в свой стартовый коридор, если он пуст
	if cur.Kind == KindStart {
		start, ok := startingHallways[character]
		if ok && dest == start && b.hallways[start] == "" {
			return MoveCheck{Allowed: true, Kind: KindHallway}
		}
		return MoveCheck{}
	}

	// 2. занятый другим игроком коридор недоступен независимо от смежности
	if IsHallway(dest) {
		if occ := b.hallways[dest]; occ != "" && occ != playerID {
			return MoveCheck{}
		}
	}

	switch cur.Kind {
	case KindRoom:
		// 3. из комнаты: свободный смежный коридор или тайный ход
		for _, h := range roomHallways[cur.Location] {
			if h == dest {
				return MoveCheck{Allowed: true, Kind: KindHallway}
			}
		}
		if passage, ok := secretPassages[cur.Location]; ok && passage == dest {
			return MoveCheck{Allowed: true, Kind: KindRoom, ViaSecretPassage: true}
		}
		if movedBySuggestion && dest == cur.Location {
			return MoveCheck{Allowed: true, Kind: KindRoom}
		}
	case KindHallway:
		// 4. из коридора только в одну из двух комнат
		a, c := hallwayRooms(cur.Location)
		if dest == a || dest == c {
			return MoveCheck{Allowed: true, Kind: KindRoom}
		}
	}

	// 5. все остальное запрещено
	return MoveCheck{}
}

// ValidMoves перечисляет все допустимые направления хода
func (b *Board) ValidMoves(playerID string, character Card, movedBySuggestion bool) []MoveOption {
	cur, ok := b.positions[playerID]
	if !ok {
		return nil
	}

	var candidates []string
	switch cur.Kind {
	case KindStart:
		if h, ok := startingHallways[character]; ok {
			candidates = []string{h}
		}
	case KindRoom:
		candidates = append(candidates, roomHallways[cur.Location]...)
		if passage, ok := secretPassages[cur.Location]; ok {
			candidates = append(candidates, passage)
		}
		if movedBySuggestion {
			candidates = append(candidates, cur.Location)
		}
	case KindHallway:
		candidates = AdjacentRooms(cur.Location)
	}

	var out []MoveOption
	for _, dest := range candidates {
		check := b.ValidMove(playerID, character, movedBySuggestion, dest)
		if !check.Allowed {
			continue
		}
		out = append(out, MoveOption{
			Destination:      dest,
			Kind:             check.Kind,
			ViaSecretPassage: check.ViaSecretPassage,
			StayInRoom:       cur.Kind == KindRoom && dest == cur.Location,
			CanSuggest:       check.Kind == KindRoom,
		})
	}
	return out
}

// MovePlayer переносит уже проверенного игрока в новую локацию
func (b *Board) MovePlayer(playerID, dest string) Position {
	cur, ok := b.positions[playerID]
	invariant(ok, "player %s is not on the board", playerID)

	var next Position
	switch {
	case IsRoom(dest):
		next = Position{Location: dest, Kind: KindRoom}
	case IsHallway(dest):
		occ := b.hallways[dest]
		invariant(occ == "" || occ == playerID, "hallway %s already holds %s", dest, occ)
		next = Position{Location: dest, Kind: KindHallway}
	default:
		invariant(false, "invalid new location: %s", dest)
	}

	if cur == next {
		return next
	}
	b.remove(playerID, cur)
	b.insert(playerID, next)
	return next
}

// Teleport переносит игрока в комнату в обход правил смежности и занятости.
// Используется только при предположении.
func (b *Board) Teleport(playerID, room string) Position {
	invariant(IsRoom(room), "teleport target %s is not a room", room)
	return b.MovePlayer(playerID, room)
}

func (b *Board) remove(playerID string, pos Position) {
	switch pos.Kind {
	case KindRoom:
		occ := b.rooms[pos.Location]
		for i, id := range occ {
			if id == playerID {
				b.rooms[pos.Location] = append(occ[:i:i], occ[i+1:]...)
				break
			}
		}
	case KindHallway:
		invariant(b.hallways[pos.Location] == playerID, "hallway %s does not hold %s", pos.Location, playerID)
		b.hallways[pos.Location] = ""
	}
}

func (b *Board) insert(playerID string, pos Position) {
	switch pos.Kind {
	case KindRoom:
		b.rooms[pos.Location] = append(b.rooms[pos.Location], playerID)
	case KindHallway:
		b.hallways[pos.Location] = playerID
	}
	b.positions[playerID] = pos
}

// BoardRecord - сериализуемый снимок занятости
type BoardRecord struct {
	Rooms     map[string][]string `json:"rooms"`
	Hallways  map[string]string   `json:"hallways"`
	Positions map[string]Position `json:"positions"`
}

func (b *Board) Record() BoardRecord {
	rec := BoardRecord{
		Rooms:     make(map[string][]string, len(b.rooms)),
		Hallways:  make(map[string]string, len(b.hallways)),
		Positions: make(map[string]Position, len(b.positions)),
	}
	for r, occ := range b.rooms {
		rec.Rooms[r] = append([]string{}, occ...)
	}
	for h, occ := range b.hallways {
		rec.Hallways[h] = occ
	}
	for id, p := range b.positions {
		rec.Positions[id] = p
	}
	return rec
}

// boardFromRecord восстанавливает поле и проверяет согласованность снимка
func boardFromRecord(rec BoardRecord) (*Board, error) {
	b := NewBoard()
	for id, p := range rec.Positions {
		switch p.Kind {
		case KindStart:
			b.positions[id] = p
		case KindRoom:
			if !IsRoom(p.Location) {
				return nil, corruptRecord("unknown room %q", p.Location)
			}
		case KindHallway:
			if !IsHallway(p.Location) {
				return nil, corruptRecord("unknown hallway %q", p.Location)
			}
			if b.hallways[p.Location] != "" {
				return nil, corruptRecord("hallway %q holds two players", p.Location)
			}
			b.hallways[p.Location] = id
			b.positions[id] = p
		default:
			return nil, corruptRecord("unknown location kind %q", p.Kind)
		}
	}

	// порядок в комнатах берем из снимка
	for _, r := range Rooms {
		for _, id := range rec.Rooms[r] {
			if p, ok := rec.Positions[id]; !ok || p.Kind != KindRoom || p.Location != r {
				return nil, corruptRecord("room %q lists player %s at another location", r, id)
			}
			b.rooms[r] = append(b.rooms[r], id)
			b.positions[id] = Position{Location: r, Kind: KindRoom}
		}
	}
	for id, p := range rec.Positions {
		if _, ok := b.positions[id]; !ok {
			return nil, corruptRecord("player %s missing from room %q", id, p.Location)
		}
	}
	for h, occ := range rec.Hallways {
		if occ != "" && b.hallways[h] != occ {
			return nil, corruptRecord("hallway %q occupant %s disagrees with positions", h, occ)
		}
	}
	return b, nil
}

// Occupied перечисляет занятые коридоры в стабильном порядке
func (b *Board) Occupied() []string {
	var out []string
	for h, occ := range b.hallways {
		if occ != "" {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}
