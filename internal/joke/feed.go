package joke

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"pokerhand/internal/domain"
)

// Feed picks a joke from an RSS or Atom feed: the item title is the setup and the
// description is the punchline.
type Feed struct {
	url    string
	client *http.Client
	pick   func(n int) int
}

func NewFeed(url string, timeout time.Duration) *Feed {
	return &Feed{
		url:    url,
		client: &http.Client{Timeout: timeout},
		pick:   rand.IntN,
	}
}

func (f *Feed) Random(ctx context.Context) (domain.Joke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.Joke{}, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Joke{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Joke{}, fmt.Errorf("joke feed error: %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return domain.Joke{}, err
	}

	var jokes []domain.Joke
	for _, item := range feed.Items {
		j := domain.Joke{
			Setup:     strings.TrimSpace(item.Title),
			Punchline: strings.TrimSpace(item.Description),
		}
		if !j.Empty() {
			jokes = append(jokes, j)
		}
	}
	if len(jokes) == 0 {
		return domain.Joke{}, errors.New("joke feed has no usable items")
	}

	return jokes[f.pick(len(jokes))], nil
}
