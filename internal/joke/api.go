package joke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pokerhand/internal/domain"
)

// API reads jokes from an official-joke-api style endpoint returning
// {"setup": "...", "punchline": "..."}.
type API struct {
	url    string
	client *http.Client
}

func NewAPI(url string, timeout time.Duration) *API {
	return &API{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (a *API) Random(ctx context.Context) (domain.Joke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return domain.Joke{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.Joke{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Joke{}, fmt.Errorf("joke API error: %d", resp.StatusCode)
	}

	var j domain.Joke
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return domain.Joke{}, err
	}

	return j, nil
}
