package game

import (
	"fmt"
	"math/rand/v2"
)

type Category string

const (
	CategorySuspect Category = "suspect"
	CategoryWeapon  Category = "weapon"
	CategoryRoom    Category = "room"
)

type Card string

// подозреваемые; они же ростер персонажей лобби
var Suspects = []Card{
	"Miss Scarlet",
	"Colonel Mustard",
	"Mrs. White",
	"Mr. Green",
	"Mrs. Peacock",
	"Professor Plum",
}

var Weapons = []Card{
	"Candlestick",
	"Dagger",
	"Lead Pipe",
	"Revolver",
	"Rope",
	"Wrench",
}

var RoomCards = []Card{
	"Kitchen",
	"Ballroom",
	"Conservatory",
	"Dining Room",
	"Lounge",
	"Hall",
	"Study",
	"Library",
	"Billiard Room",
}

// карта комнаты -> комната на поле
var roomCardToRoom = map[Card]string{
	"Kitchen":       RoomKitchen,
	"Ballroom":      RoomBallroom,
	"Conservatory":  RoomConservatory,
	"Dining Room":   RoomDining,
	"Lounge":        RoomLounge,
	"Hall":          RoomHall,
	"Study":         RoomStudy,
	"Library":       RoomLibrary,
	"Billiard Room": RoomBilliard,
}

var roomToRoomCard = func() map[string]Card {
	m := make(map[string]Card, len(roomCardToRoom))
	for card, room := range roomCardToRoom {
		m[room] = card
	}
	return m
}()

// FullDeck возвращает все 21 карту колоды
func FullDeck() []Card {
	deck := make([]Card, 0, len(Suspects)+len(Weapons)+len(RoomCards))
	deck = append(deck, Suspects...)
	deck = append(deck, Weapons...)
	deck = append(deck, RoomCards...)
	return deck
}

// CategoryOf возвращает категорию карты
func CategoryOf(c Card) (Category, bool) {
	switch {
	case contains(Suspects, c):
		return CategorySuspect, true
	case contains(Weapons, c):
		return CategoryWeapon, true
	case contains(RoomCards, c):
		return CategoryRoom, true
	}
	return "", false
}

func IsSuspect(c Card) bool { return contains(Suspects, c) }
func IsWeapon(c Card) bool  { return contains(Weapons, c) }
func IsRoomCard(c Card) bool { return contains(RoomCards, c) }

// RoomCardFor возвращает карту для комнаты на поле
func RoomCardFor(room string) (Card, bool) {
	c, ok := roomToRoomCard[room]
	return c, ok
}

// RoomForCard возвращает комнату на поле для карты комнаты
func RoomForCard(c Card) (string, bool) {
	r, ok := roomCardToRoom[c]
	return r, ok
}

func contains(cards []Card, c Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}

type Solution struct {
	Suspect Card `json:"suspect"`
	Weapon  Card `json:"weapon"`
	Room    Card `json:"room"`
}

// Matches - точное совпадение по всем трем полям
func (s Solution) Matches(suspect, weapon, room Card) bool {
	return s.Suspect == suspect && s.Weapon == weapon && s.Room == room
}

// Deck - три непересекающиеся колоды по категориям.
// Раскладка одноразовая: сначала DrawSolution, затем DealRemaining.
type Deck struct {
	suspects []Card
	weapons  []Card
	rooms    []Card
	drawn    bool
}

func NewDeck() *Deck {
	return &Deck{
		suspects: append([]Card(nil), Suspects...),
		weapons:  append([]Card(nil), Weapons...),
		rooms:    append([]Card(nil), RoomCards...),
	}
}

// Size - сколько карт еще можно раздать
func (d *Deck) Size() int {
	return len(d.suspects) + len(d.weapons) + len(d.rooms)
}

// DrawSolution вынимает по одной случайной карте из каждой категории.
// Эти карты навсегда исключаются из раздачи.
func (d *Deck) DrawSolution(rng *rand.Rand) Solution {
	invariant(!d.drawn, "solution already drawn")
	d.drawn = true

	var sol Solution
	sol.Suspect, d.suspects = takeAt(d.suspects, rng.IntN(len(d.suspects)))
	sol.Weapon, d.weapons = takeAt(d.weapons, rng.IntN(len(d.weapons)))
	sol.Room, d.rooms = takeAt(d.rooms, rng.IntN(len(d.rooms)))
	return sol
}

// DealRemaining перемешивает оставшиеся карты и раздает их по кругу:
// игрок i получает карты с позиций i, i+n, i+2n, ...
func (d *Deck) DealRemaining(rng *rand.Rand, playerIDs []string) (map[string][]Card, error) {
	if len(playerIDs) == 0 {
		return nil, &Error{Kind: KindInvariant, Code: "NO_PLAYERS", Message: "cannot deal to zero players"}
	}

	all := make([]Card, 0, d.Size())
	all = append(all, d.suspects...)
	all = append(all, d.weapons...)
	all = append(all, d.rooms...)
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	hands := make(map[string][]Card, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := hands[id]; dup {
			return nil, &Error{Kind: KindInvariant, Code: "DUPLICATE_PLAYER", Message: fmt.Sprintf("player %s listed twice", id)}
		}
		hands[id] = make([]Card, 0, len(all)/len(playerIDs)+1)
	}
	for i, card := range all {
		id := playerIDs[i%len(playerIDs)]
		hands[id] = append(hands[id], card)
	}

	d.suspects, d.weapons, d.rooms = nil, nil, nil
	return hands, nil
}

func takeAt(cards []Card, i int) (Card, []Card) {
	c := cards[i]
	rest := make([]Card, 0, len(cards)-1)
	rest = append(rest, cards[:i]...)
	rest = append(rest, cards[i+1:]...)
	return c, rest
}
