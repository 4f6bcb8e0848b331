package game

type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeDisproved  Outcome = "disproved"
	OutcomeNoDisproof Outcome = "no_disproof"
)

// Suggestion - запись журнала предположений. Index стабилен и не переиспользуется.
type Suggestion struct {
	Index       int     `json:"index"`
	SuggesterID string  `json:"suggester_id"`
	Suspect     Card    `json:"suspect"`
	Weapon      Card    `json:"weapon"`
	Room        Card    `json:"room"`
	Outcome     Outcome `json:"outcome"`
	DisprovedBy string  `json:"disproved_by,omitempty"`
	CardShown   bool    `json:"card_shown"`
	// видна только предположившему, в публичное представление не попадает
	ShownCard Card `json:"shown_card,omitempty"`

	// порядок опроса и позиция текущего отвечающего в нем
	Responders []string `json:"responders"`
	Asked      int      `json:"asked"`
	Declined   []string `json:"declined,omitempty"`
}

// Names сообщает, названа ли карта в предположении
func (s *Suggestion) Names(c Card) bool {
	return c == s.Suspect || c == s.Weapon || c == s.Room
}

func (s *Suggestion) Pending() bool {
	return s.Outcome == OutcomePending
}

// Awaiting возвращает игрока, от которого сейчас ждем ответа
func (s *Suggestion) Awaiting() (string, bool) {
	if !s.Pending() || s.Asked >= len(s.Responders) {
		return "", false
	}
	return s.Responders[s.Asked], true
}

// Public - копия без показанной карты
func (s Suggestion) Public() Suggestion {
	s.ShownCard = ""
	s.Responders = append([]string(nil), s.Responders...)
	s.Declined = append([]string(nil), s.Declined...)
	return s
}

// responderOrder строит порядок опроса: сначала владелец названного подозреваемого
// (если это не сам предполагающий), затем по часовой стрелке от следующего за
// предполагающим. Предполагающий в порядок не входит, каждый игрок встречается один раз.
func responderOrder(order []string, suggesterIdx int, suspectOwner string) []string {
	suggester := order[suggesterIdx]
	out := make([]string, 0, len(order)-1)
	if suspectOwner != "" && suspectOwner != suggester {
		out = append(out, suspectOwner)
	}
	for i := 1; i < len(order); i++ {
		id := order[(suggesterIdx+i)%len(order)]
		if id == suspectOwner {
			continue
		}
		out = append(out, id)
	}
	return out
}
