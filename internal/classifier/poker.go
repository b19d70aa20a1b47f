package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulhankin/poker"

	"pokerhand/internal/domain"
)

// Poker classifies hands and adds a readable description such as
// "full house, threes over nines" when the hand can be evaluated as real cards.
type Poker struct{}

func NewPoker() *Poker {
	return &Poker{}
}

func (p *Poker) Classify(_ context.Context, hand domain.Hand) (*Result, error) {
	handType, err := Classify(hand)
	if err != nil {
		return nil, err
	}

	result := &Result{HandType: handType}
	if desc, err := Describe(hand); err == nil {
		result.Description = desc
	}
	return result, nil
}

// Describe renders the hand through the poker evaluator. Hands with unrecognised
// suits or repeated cards cannot be dealt from a real deck and are rejected.
func Describe(hand domain.Hand) (string, error) {
	if len(hand) != domain.HandSize {
		return "", fmt.Errorf("describe: expected %d cards, got %d", domain.HandSize, len(hand))
	}

	cards := make([]poker.Card, 0, len(hand))
	seen := make(map[poker.Card]bool, len(hand))
	for i, c := range hand {
		pc, err := toPokerCard(c)
		if err != nil {
			return "", fmt.Errorf("describe card %d: %w", i+1, err)
		}
		if seen[pc] {
			return "", fmt.Errorf("describe: card %s appears twice", c)
		}
		seen[pc] = true
		cards = append(cards, pc)
	}

	return poker.Describe(cards)
}

func toPokerCard(c domain.Card) (poker.Card, error) {
	var none poker.Card

	suit, ok := ParseSuit(c.Suit)
	if !ok {
		return none, fmt.Errorf("unknown suit %q", c.Suit)
	}

	rank, err := ParseRank(c.Number)
	if err != nil {
		return none, err
	}
	// the evaluator counts aces as 1
	if rank == RankAce {
		rank = 1
	}

	return poker.MakeCard(poker.Suit(suit), poker.Rank(rank))
}

// Suit indexes as used by the evaluator.
const (
	SuitClubs = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

// SuitNames holds the form spelling of each suit, indexed like the constants above.
var SuitNames = [...]string{"Clubs", "Diamonds", "Hearts", "Spades"}

// ParseSuit recognises suit names, single letters and suit symbols.
func ParseSuit(token string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "clubs", "club", "c", "♣":
		return SuitClubs, true
	case "diamonds", "diamond", "d", "♦":
		return SuitDiamonds, true
	case "hearts", "heart", "h", "♥":
		return SuitHearts, true
	case "spades", "spade", "s", "♠":
		return SuitSpades, true
	}
	return 0, false
}
