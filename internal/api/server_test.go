package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"pokerhand/internal/classifier"
	"pokerhand/internal/domain"
	"pokerhand/internal/logger"
)

func pairHand(id int) domain.HandRecord {
	return domain.HandRecord{
		ID: fmt.Sprintf("h%03d", id),
		Hand: domain.Hand{
			{Number: "Q", Suit: "Clubs"},
			{Number: "Q", Suit: "Diamonds"},
			{Number: "3", Suit: "Hearts"},
			{Number: "7", Suit: "Spades"},
			{Number: strconv.Itoa(2 + id%9), Suit: "Hearts"},
		},
		HandType: "Pair",
	}
}

type memStore struct {
	mu      sync.Mutex
	hands   []domain.HandRecord
	apps    []domain.Application
	saveErr error
	findErr error
}

func (m *memStore) Save(_ context.Context, rec domain.HandRecord) (domain.HandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return domain.HandRecord{}, m.saveErr
	}
	m.hands = append(m.hands, rec)
	return rec, nil
}

func (m *memStore) FindAll(_ context.Context, limit, offset int) ([]domain.HandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.hands) {
		return nil, nil
	}
	end := min(offset+limit, len(m.hands))
	return append([]domain.HandRecord(nil), m.hands[offset:end]...), nil
}

func (m *memStore) Count(context.Context) (int, error) {
	return len(m.hands), nil
}

func (m *memStore) DeleteAll(context.Context) (int64, error) {
	n := int64(len(m.hands))
	m.hands = nil
	return n, nil
}

func (m *memStore) SaveApplication(_ context.Context, app domain.Application) (domain.Application, error) {
	app.ID = "app-" + app.Email
	m.apps = append(m.apps, app)
	return app, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*domain.Application, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.apps {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) FindByMinGPA(_ context.Context, gpa float64) ([]domain.Application, error) {
	var out []domain.Application
	for _, a := range m.apps {
		if a.GPA >= gpa {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GPA > out[j].GPA })
	return out, nil
}

func (m *memStore) DeleteAllApplications(context.Context) (int64, error) {
	n := int64(len(m.apps))
	m.apps = nil
	return n, nil
}

// inlineProcessor classifies and saves without side effects.
type inlineProcessor struct {
	store *memStore
}

func (p inlineProcessor) Process(ctx context.Context, sub domain.Submission) (domain.HandRecord, error) {
	ht, err := classifier.Classify(sub.Hand)
	if err != nil {
		return domain.HandRecord{}, err
	}
	return p.store.Save(ctx, domain.HandRecord{ID: sub.ID, Hand: sub.Hand, HandType: string(ht), CreatedAt: sub.SubmittedAt})
}

type fixedJoke struct {
	calls int
}

func (f *fixedJoke) Tell(context.Context) domain.Joke {
	f.calls++
	return domain.FallbackJoke
}

type memPublisher struct {
	subs []domain.Submission
	err  error
}

func (p *memPublisher) Publish(_ context.Context, sub domain.Submission) error {
	if p.err != nil {
		return p.err
	}
	p.subs = append(p.subs, sub)
	return nil
}

func (p *memPublisher) Close() error { return nil }

type memStats struct {
	counts   map[string]int64
	reset    bool
	totalErr error
}

func (s *memStats) HandTypeCounts(context.Context) (map[string]int64, error) {
	return s.counts, nil
}

func (s *memStats) Total(context.Context) (int64, error) {
	if s.totalErr != nil {
		return 0, s.totalErr
	}
	var n int64
	for _, c := range s.counts {
		n += c
	}
	return n, nil
}

func (s *memStats) Reset(context.Context) error {
	s.reset = true
	s.counts = nil
	return nil
}

func newTestServer(store *memStore, opts ...func(*Deps)) (*Server, *fixedJoke) {
	jokes := &fixedJoke{}
	d := Deps{
		Processor:    inlineProcessor{store: store},
		Hands:        store,
		Applications: store,
		Jokes:        jokes,
		Logger:       logger.Discard(),
	}
	for _, o := range opts {
		o(&d)
	}
	return NewServer(d), jokes
}

func do(s *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func doJSON(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func handForm(cards ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(cards); i += 2 {
		n := (i / 2) + 1
		v.Set("number"+string(rune('0'+n)), cards[i])
		v.Set("suit"+string(rune('0'+n)), cards[i+1])
	}
	return v
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(&memStore{})

	for _, path := range []string{"/", "/classify", "/pastHands", "/apply", "/reviewApplication", "/adminGPA", "/adminRemove"} {
		rec := do(s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "</html>") {
			t.Fatalf("GET %s: expected a full page", path)
		}
	}
}

func TestClassifyHand(t *testing.T) {
	store := &memStore{}
	s, jokes := newTestServer(store)

	rec := do(s, http.MethodPost, "/classifyHand", handForm("10", "Spades", "J", "Spades", "Q", "Spades", "K", "Spades", "A", "Spades"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Royal Flush") {
		t.Fatalf("expected Royal Flush in page, got %s", body)
	}
	if !strings.Contains(body, "RESTaurant") {
		t.Fatalf("expected joke in page")
	}
	if jokes.calls != 1 {
		t.Fatalf("expected one joke fetch, got %d", jokes.calls)
	}
	if len(store.hands) != 1 || store.hands[0].HandType != "Royal Flush" {
		t.Fatalf("unexpected stored hands: %+v", store.hands)
	}
}

func TestClassifyHandValidation(t *testing.T) {
	cases := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing suit", handForm("2", "Clubs", "3", "Clubs", "4", "Clubs", "5", "Clubs", "6", ""), "suit5"},
		{"missing number", handForm("2", "Clubs", "", "Clubs", "4", "Clubs", "5", "Clubs", "6", "Clubs"), "number2"},
		{"bad rank", handForm("2", "Clubs", "3", "Clubs", "4", "Clubs", "Z", "Clubs", "6", "Clubs"), "number4"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := &memStore{}
			s, jokes := newTestServer(store)

			rec := do(s, http.MethodPost, "/classifyHand", c.form)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), c.field) {
				t.Fatalf("expected error naming %s, got %s", c.field, rec.Body.String())
			}
			if len(store.hands) != 0 || jokes.calls != 0 {
				t.Fatal("invalid hands must not be saved or joked about")
			}
		})
	}
}

func TestClassifyHandStorageFailure(t *testing.T) {
	s, jokes := newTestServer(&memStore{saveErr: errors.New("db down")})

	rec := do(s, http.MethodPost, "/classifyHand", handForm("2", "Clubs", "3", "Clubs", "4", "Clubs", "5", "Clubs", "6", "Clubs"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if jokes.calls != 0 {
		t.Fatal("joke must not be fetched when the hand was not saved")
	}
}

func TestPastHands(t *testing.T) {
	store := &memStore{}
	s, _ := newTestServer(store)

	do(s, http.MethodPost, "/classifyHand", handForm("3", "Clubs", "3", "Diamonds", "3", "Hearts", "9", "Spades", "9", "Clubs"))

	rec := do(s, http.MethodGet, "/pastHands", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "3 of Diamonds") || !strings.Contains(body, "Full House") {
		t.Fatalf("expected stored hand in table, got %s", body)
	}
}

func TestPastHandsPages(t *testing.T) {
	store := &memStore{}
	for i := 0; i < pastHandsPageSize+50; i++ {
		store.hands = append(store.hands, pairHand(i))
	}
	s, _ := newTestServer(store)

	first := do(s, http.MethodGet, "/pastHands", nil).Body.String()
	if n := strings.Count(first, "<td>Pair</td>"); n != pastHandsPageSize {
		t.Fatalf("expected %d rows on the first page, got %d", pastHandsPageSize, n)
	}
	if !strings.Contains(first, "of 150") || !strings.Contains(first, `href="/pastHands?page=2"`) {
		t.Fatalf("expected total and a link to page 2, got %s", first)
	}

	second := do(s, http.MethodGet, "/pastHands?page=2", nil).Body.String()
	if n := strings.Count(second, "<td>Pair</td>"); n != 50 {
		t.Fatalf("expected 50 rows on the second page, got %d", n)
	}
	if strings.Contains(second, "page=3") || !strings.Contains(second, `href="/pastHands?page=1"`) {
		t.Fatalf("expected only a link back to page 1, got %s", second)
	}

	bad := do(s, http.MethodGet, "/pastHands?page=zero", nil)
	if bad.Code != http.StatusOK || strings.Count(bad.Body.String(), "<td>Pair</td>") != pastHandsPageSize {
		t.Fatalf("expected an unreadable page number to show the first page, got %d", bad.Code)
	}
}

func TestSubmitHandInline(t *testing.T) {
	store := &memStore{}
	s, _ := newTestServer(store)

	rec := doJSON(s, http.MethodPost, "/api/hands", `{"hand":[
		{"number":"4","suit":"Clubs"},{"number":"4","suit":"Diamonds"},{"number":"4","suit":"Hearts"},
		{"number":"6","suit":"Spades"},{"number":"9","suit":"Clubs"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.HandRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HandType != "Three of a Kind" || got.ID == "" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestSubmitHandQueued(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	s, _ := newTestServer(store, func(d *Deps) { d.Publisher = pub })

	rec := doJSON(s, http.MethodPost, "/api/hands", `{"hand":[
		{"number":"2","suit":"Clubs"},{"number":"5","suit":"Diamonds"},{"number":"9","suit":"Hearts"},
		{"number":"J","suit":"Spades"},{"number":"K","suit":"Clubs"}]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(pub.subs) != 1 || len(store.hands) != 0 {
		t.Fatalf("expected hand to be queued, not saved: %d queued, %d saved", len(pub.subs), len(store.hands))
	}
}

func TestSubmitHandRejectsBeforeQueue(t *testing.T) {
	pub := &memPublisher{}
	s, _ := newTestServer(&memStore{}, func(d *Deps) { d.Publisher = pub })

	rec := doJSON(s, http.MethodPost, "/api/hands", `{"hand":[{"number":"2","suit":"Clubs"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["field"] != "hand" {
		t.Fatalf("expected field hand, got %v", body)
	}
	if len(pub.subs) != 0 {
		t.Fatal("invalid hand must not be queued")
	}
}

func TestGetAndDeleteHands(t *testing.T) {
	store := &memStore{}
	stats := &memStats{counts: map[string]int64{"Pair": 1}}
	s, _ := newTestServer(store, func(d *Deps) { d.Stats = stats })

	do(s, http.MethodPost, "/classifyHand", handForm("Q", "Clubs", "Q", "Diamonds", "3", "Hearts", "7", "Spades", "9", "Clubs"))

	rec := do(s, http.MethodGet, "/api/hands?limit=10", nil)
	var records []domain.HandRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].HandType != "Pair" {
		t.Fatalf("unexpected records: %+v", records)
	}

	rec = do(s, http.MethodGet, "/api/hands?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = do(s, http.MethodDelete, "/api/hands", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":1`) {
		t.Fatalf("unexpected delete response %d: %s", rec.Code, rec.Body.String())
	}
	if !stats.reset {
		t.Fatal("expected stats to be reset")
	}
}

func TestStats(t *testing.T) {
	stats := &memStats{counts: map[string]int64{"Pair": 3, "Flush": 1}}
	s, _ := newTestServer(&memStore{}, func(d *Deps) { d.Stats = stats })

	rec := do(s, http.MethodGet, "/api/stats", nil)
	var body struct {
		Total  int64            `json:"total"`
		Counts map[string]int64 `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 4 || body.Counts["Pair"] != 3 {
		t.Fatalf("unexpected stats: %+v", body)
	}

	page := do(s, http.MethodGet, "/", nil).Body.String()
	if strings.Index(page, "Flush") > strings.Index(page, "Pair") {
		t.Fatal("expected stronger hand types listed first")
	}
}

func TestStatsFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	stats := &memStats{counts: map[string]int64{"Pair": 1}, totalErr: errors.New("redis down")}
	s, _ := newTestServer(&memStore{}, func(d *Deps) {
		d.Stats = stats
		d.Logger = log
	})

	rec := do(s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the index to render, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "stats.unavailable") || !strings.Contains(buf.String(), "redis down") {
		t.Fatalf("expected stats failure to be logged, got %s", buf.String())
	}
}

func TestApplications(t *testing.T) {
	store := &memStore{}
	s, _ := newTestServer(store)

	for _, a := range []url.Values{
		{"name": {"Ada"}, "email": {"ada@example.com"}, "gpa": {"3.9"}, "background": {"math"}},
		{"name": {"Bob"}, "email": {"bob@example.com"}, "gpa": {"2.5"}},
	} {
		rec := do(s, http.MethodPost, "/apply", a)
		if rec.Code != http.StatusOK {
			t.Fatalf("apply: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(s, http.MethodPost, "/apply", url.Values{"name": {"Cy"}, "email": {"not-an-email"}, "gpa": {"3"}})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("expected email validation error, got %d", rec.Code)
	}

	rec = do(s, http.MethodPost, "/reviewApplication", url.Values{"email": {"ada@example.com"}})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "math") {
		t.Fatalf("expected Ada's application, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodPost, "/reviewApplication", url.Values{"email": {"nobody@example.com"}})
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "No application found for nobody@example.com") {
		t.Fatalf("expected 404 page, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodPost, "/adminGPA", url.Values{"gpa": {"3.0"}})
	body := rec.Body.String()
	if !strings.Contains(body, "Ada") || strings.Contains(body, "Bob") {
		t.Fatalf("expected only Ada above 3.0, got %s", body)
	}

	rec = do(s, http.MethodPost, "/adminGPA", url.Values{"gpa": {"5"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for gpa above 4, got %d", rec.Code)
	}

	rec = do(s, http.MethodPost, "/adminRemove", nil)
	if !strings.Contains(rec.Body.String(), "Number of applications removed: 2") {
		t.Fatalf("unexpected remove page: %s", rec.Body.String())
	}
	if len(store.apps) != 0 {
		t.Fatal("expected all applications removed")
	}
}

func TestReviewApplicationLookupFailure(t *testing.T) {
	s, _ := newTestServer(&memStore{findErr: errors.New("db down")})

	rec := do(s, http.MethodPost, "/reviewApplication", url.Values{"email": {"ada@example.com"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&memStore{})
	rec := do(s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSSEBroker(t *testing.T) {
	b := NewSSEBroker()
	ch := b.Subscribe()

	b.Broadcast("hello")
	if got := <-ch; got != "hello" {
		t.Fatalf("expected hello, got %s", got)
	}

	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	b.Broadcast("nobody listening")
}
