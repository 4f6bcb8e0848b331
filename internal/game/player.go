package game

// Player - состояние игрока внутри сессии
type Player struct {
	ID        string
	Name      string
	Character Card
	Hand      []Card
	// выставляется навсегда после неверного обвинения
	Eliminated bool
	// дает одноразовое право остаться в комнате и сделать предположение
	MovedBySuggestion bool
}

func (p *Player) HasCard(c Card) bool {
	return contains(p.Hand, c)
}

// MatchingCards - карты из руки, которыми можно опровергнуть предположение
func (p *Player) MatchingCards(s *Suggestion) []Card {
	var out []Card
	for _, c := range p.Hand {
		if s.Names(c) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Player) CanDisprove(s *Suggestion) bool {
	return len(p.MatchingCards(s)) > 0
}
