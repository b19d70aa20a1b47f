package domain

import "time"

// Card is a card as submitted by the form. Number and Suit keep the raw tokens;
// rank resolution happens in the classifier.
type Card struct {
	Number string `json:"number" msgpack:"number"`
	Suit   string `json:"suit" msgpack:"suit"`
}

func (c Card) String() string {
	return c.Number + " of " + c.Suit
}

// Hand is the ordered sequence of cards submitted together. Duplicate cards are allowed.
type Hand []Card

// HandSize is the number of cards a classifiable hand holds.
const HandSize = 5

type Submission struct {
	ID          string    `json:"id" msgpack:"id"`
	Hand        Hand      `json:"hand" msgpack:"hand"`
	SubmittedAt time.Time `json:"submitted_at" msgpack:"submitted_at"`
}

type HandRecord struct {
	ID          string    `json:"id"`
	Hand        Hand      `json:"hand"`
	HandType    string    `json:"handType"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
