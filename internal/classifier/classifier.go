// Package classifier maps a five-card hand to its poker category.
//
// Classify is a pure function: it sorts the rank ordinals, tests for a flush and a
// straight, groups equal ranks and then walks the categories from strongest to weakest.
// The walk order matters because the raw tests overlap (every straight flush is also a
// flush and a straight).
package classifier

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pokerhand/internal/domain"
)

type HandType string

const (
	HandTypeRoyalFlush    HandType = "Royal Flush"
	HandTypeStraightFlush HandType = "Straight Flush"
	HandTypeFourOfAKind   HandType = "Four of a Kind"
	HandTypeFullHouse     HandType = "Full House"
	HandTypeFlush         HandType = "Flush"
	HandTypeStraight      HandType = "Straight"
	HandTypeThreeOfAKind  HandType = "Three of a Kind"
	HandTypeTwoPair       HandType = "Two Pair"
	HandTypePair          HandType = "Pair"
	HandTypeHighCard      HandType = "High Card"
)

// HandTypes lists every category from weakest to strongest.
var HandTypes = []HandType{
	HandTypeHighCard,
	HandTypePair,
	HandTypeTwoPair,
	HandTypeThreeOfAKind,
	HandTypeStraight,
	HandTypeFlush,
	HandTypeFullHouse,
	HandTypeFourOfAKind,
	HandTypeStraightFlush,
	HandTypeRoyalFlush,
}

// Strength orders categories, 1 for High Card up to 10 for Royal Flush. Unknown values are 0.
func (h HandType) Strength() int {
	return slices.Index(HandTypes, h) + 1
}

func (h HandType) String() string {
	return string(h)
}

// ParseHandType accepts a category label, ignoring case and surrounding spaces.
func ParseHandType(s string) (HandType, error) {
	s = strings.TrimSpace(s)
	for _, h := range HandTypes {
		if strings.EqualFold(string(h), s) {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown hand type %q", s)
}

type Result struct {
	HandType    HandType
	Description string
}

type Classifier interface {
	Classify(ctx context.Context, hand domain.Hand) (*Result, error)
}

// Rank ordinals. Aces count high; the wheel (A-2-3-4-5) is handled by isStraight.
const (
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
)

// ParseRank resolves a rank token (2-10, J, Q, K, A) to its ordinal.
func ParseRank(token string) (int, error) {
	token = strings.TrimSpace(token)
	switch strings.ToUpper(token) {
	case "":
		return 0, fmt.Errorf("missing rank")
	case "A":
		return RankAce, nil
	case "K":
		return RankKing, nil
	case "Q":
		return RankQueen, nil
	case "J":
		return RankJack, nil
	}

	n, err := strconv.Atoi(token)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("unknown rank %q", token)
	}
	return n, nil
}

// Classify returns the category of a five-card hand. Any unusable card yields a
// *domain.ValidationError naming the form field at fault.
func Classify(hand domain.Hand) (HandType, error) {
	ranks, suits, err := resolve(hand)
	if err != nil {
		return "", err
	}

	slices.Sort(ranks)

	flush := isFlush(suits)
	straight := isStraight(ranks)
	counts := groupCounts(ranks)

	switch {
	case straight && flush && ranks[0] == 10:
		return HandTypeRoyalFlush, nil
	case straight && flush:
		return HandTypeStraightFlush, nil
	case counts[0] == 4:
		return HandTypeFourOfAKind, nil
	case counts[0] == 3 && len(counts) > 1 && counts[1] == 2:
		return HandTypeFullHouse, nil
	case flush:
		return HandTypeFlush, nil
	case straight:
		return HandTypeStraight, nil
	case counts[0] == 3:
		return HandTypeThreeOfAKind, nil
	case counts[0] == 2 && len(counts) > 1 && counts[1] == 2:
		return HandTypeTwoPair, nil
	case counts[0] == 2:
		return HandTypePair, nil
	default:
		return HandTypeHighCard, nil
	}
}

func resolve(hand domain.Hand) ([]int, []string, error) {
	if len(hand) != domain.HandSize {
		return nil, nil, &domain.ValidationError{
			Field:  "hand",
			Value:  strconv.Itoa(len(hand)),
			Reason: fmt.Sprintf("expected %d cards", domain.HandSize),
		}
	}

	ranks := make([]int, len(hand))
	suits := make([]string, len(hand))
	for i, c := range hand {
		r, err := ParseRank(c.Number)
		if err != nil {
			return nil, nil, &domain.ValidationError{
				Field:  fmt.Sprintf("number%d", i+1),
				Value:  c.Number,
				Reason: err.Error(),
			}
		}
		s := strings.TrimSpace(c.Suit)
		if s == "" {
			return nil, nil, &domain.ValidationError{
				Field:  fmt.Sprintf("suit%d", i+1),
				Reason: "missing suit",
			}
		}
		ranks[i] = r
		suits[i] = s
	}
	return ranks, suits, nil
}

func isFlush(suits []string) bool {
	for _, s := range suits[1:] {
		if s != suits[0] {
			return false
		}
	}
	return true
}

var wheel = []int{2, 3, 4, 5, RankAce}

// isStraight expects ranks sorted ascending.
func isStraight(ranks []int) bool {
	if slices.Equal(ranks, wheel) {
		return true
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

// groupCounts returns how many cards share each rank, largest group first.
func groupCounts(ranks []int) []int {
	byRank := make(map[int]int, len(ranks))
	for _, r := range ranks {
		byRank[r]++
	}
	counts := make([]int, 0, len(byRank))
	for _, n := range byRank {
		counts = append(counts, n)
	}
	slices.SortFunc(counts, func(a, b int) int { return b - a })
	return counts
}
