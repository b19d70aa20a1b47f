package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"

	"pokerhand/internal/classifier"
	"pokerhand/internal/domain"
)

// parseCard reads short card notation: rank followed by a suit letter or symbol,
// e.g. "10H", "as", "Q♦".
func parseCard(token string) (domain.Card, error) {
	token = strings.TrimSpace(token)
	suitRune, size := utf8.DecodeLastRuneInString(token)
	if size == 0 || len(token) == size {
		return domain.Card{}, fmt.Errorf("card %q: expected rank and suit", token)
	}

	suit, ok := classifier.ParseSuit(string(suitRune))
	if !ok {
		return domain.Card{}, fmt.Errorf("card %q: unknown suit %q", token, string(suitRune))
	}

	number := strings.ToUpper(token[:len(token)-size])
	if _, err := classifier.ParseRank(number); err != nil {
		return domain.Card{}, fmt.Errorf("card %q: %w", token, err)
	}

	return domain.Card{Number: number, Suit: classifier.SuitNames[suit]}, nil
}

func parseHand(tokens []string) (domain.Hand, error) {
	hand := make(domain.Hand, 0, len(tokens))
	for _, t := range tokens {
		c, err := parseCard(t)
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}

// pretty renders a card with a colored suit symbol.
func pretty(c domain.Card) string {
	suit, ok := classifier.ParseSuit(c.Suit)
	if !ok {
		return c.String()
	}
	switch suit {
	case classifier.SuitDiamonds:
		return c.Number + pterm.LightRed("♦")
	case classifier.SuitHearts:
		return c.Number + pterm.LightRed("♥")
	case classifier.SuitClubs:
		return c.Number + pterm.Gray("♣")
	default:
		return c.Number + pterm.Gray("♠")
	}
}

func prettyHand(h domain.Hand) string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = pretty(c)
	}
	return strings.Join(parts, " ")
}
