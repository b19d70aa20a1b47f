package domain

type Joke struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
}

// FallbackJoke is served whenever no joke provider answers.
var FallbackJoke = Joke{
	Setup:     "Where did the API go to eat?",
	Punchline: "To the RESTaurant.",
}

func (j Joke) Empty() bool {
	return j.Setup == "" || j.Punchline == ""
}
