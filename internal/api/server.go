package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pokerhand/internal/classifier"
	"pokerhand/internal/domain"
	"pokerhand/internal/joke"
	"pokerhand/internal/queue"
	"pokerhand/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

type HandProcessor interface {
	Process(ctx context.Context, sub domain.Submission) (domain.HandRecord, error)
}

type StatsReader interface {
	HandTypeCounts(ctx context.Context) (map[string]int64, error)
	Total(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

type JokeTeller interface {
	Tell(ctx context.Context) domain.Joke
}

// Deps wires the server. Stats and Publisher are optional.
type Deps struct {
	Processor    HandProcessor
	Hands        storage.HandRepository
	Applications storage.ApplicationRepository
	Stats        StatsReader
	Publisher    queue.Publisher
	Jokes        JokeTeller
	Logger       *slog.Logger
	StaticDir    string
}

type Server struct {
	echo      *echo.Echo
	processor HandProcessor
	hands     storage.HandRepository
	apps      storage.ApplicationRepository
	stats     StatsReader
	publisher queue.Publisher
	jokes     JokeTeller
	log       *slog.Logger
	validate  *validator.Validate
	templates *template.Template
	sse       *SSEBroker
}

type SSEBroker struct {
	clients map[chan string]bool
	mu      sync.RWMutex
}

func NewSSEBroker() *SSEBroker {
	return &SSEBroker{clients: make(map[chan string]bool)}
}

func (b *SSEBroker) Subscribe() chan string {
	ch := make(chan string, 10)
	b.mu.Lock()
	b.clients[ch] = true
	b.mu.Unlock()
	return ch
}

func (b *SSEBroker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	close(ch)
	b.mu.Unlock()
}

// Broadcast drops the message for subscribers whose buffer is full.
func (b *SSEBroker) Broadcast(msg string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

type Stats struct {
	Total  int64
	Counts []CountView
}

type CountView struct {
	HandType string
	Count    int64
}

func NewServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Jokes == nil {
		d.Jokes = joke.WithFallback(nil, d.Logger)
	}

	s := &Server{
		echo:      e,
		processor: d.Processor,
		hands:     d.Hands,
		apps:      d.Applications,
		stats:     d.Stats,
		publisher: d.Publisher,
		jokes:     d.Jokes,
		log:       d.Logger,
		validate:  newValidator(),
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		sse:       NewSSEBroker(),
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			s.log.Info("http.request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if d.StaticDir != "" {
		e.Static("/static", d.StaticDir)
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.index)
	s.echo.GET("/health", s.health)

	// Hands
	s.echo.GET("/classify", s.classifyForm)
	s.echo.POST("/classifyHand", s.classifyHand)
	s.echo.GET("/pastHands", s.pastHands)
	s.echo.GET("/api/hands", s.getHands)
	s.echo.POST("/api/hands", s.submitHand)
	s.echo.DELETE("/api/hands", s.deleteHands)
	s.echo.GET("/api/stats", s.getStats)
	s.echo.GET("/api/events", s.events)

	// Applications
	s.echo.GET("/apply", s.applyForm)
	s.echo.POST("/apply", s.apply)
	s.echo.GET("/reviewApplication", s.reviewForm)
	s.echo.POST("/reviewApplication", s.reviewApplication)
	s.echo.GET("/adminGPA", s.gpaForm)
	s.echo.POST("/adminGPA", s.selectByGPA)
	s.echo.GET("/adminRemove", s.removeForm)
	s.echo.POST("/adminRemove", s.removeApplications)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.log.Info("server.starting", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Broadcast(msg string) {
	s.sse.Broadcast(msg)
}

func (s *Server) index(c echo.Context) error {
	return s.render(c, http.StatusOK, "index.html", map[string]any{
		"Title": "Poker Hand Classifier",
		"Stats": s.loadStats(c.Request().Context()),
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStats(c echo.Context) error {
	ctx := c.Request().Context()
	if s.stats == nil {
		n, err := s.hands.Count(ctx)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"total": n, "counts": map[string]int64{}})
	}

	counts, err := s.stats.HandTypeCounts(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	total, err := s.stats.Total(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"total": total, "counts": counts})
}

// loadStats feeds the index page; failures show empty stats rather than an error page.
func (s *Server) loadStats(ctx context.Context) Stats {
	if s.stats == nil {
		n, err := s.hands.Count(ctx)
		if err != nil {
			s.log.Warn("stats.unavailable", "err", err)
		}
		return Stats{Total: int64(n)}
	}

	counts, err := s.stats.HandTypeCounts(ctx)
	if err != nil {
		s.log.Warn("stats.unavailable", "err", err)
		return Stats{}
	}
	total, err := s.stats.Total(ctx)
	if err != nil {
		s.log.Warn("stats.unavailable", "err", err)
	}

	views := make([]CountView, 0, len(counts))
	for ht, n := range counts {
		views = append(views, CountView{HandType: ht, Count: n})
	}
	// strongest first
	sort.Slice(views, func(i, j int) bool {
		return classifier.HandType(views[i].HandType).Strength() > classifier.HandType(views[j].HandType).Strength()
	})

	return Stats{Total: total, Counts: views}
}

func (s *Server) events(c echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")

	ch := s.sse.Subscribe()
	defer s.sse.Unsubscribe(ch)

	fmt.Fprintf(c.Response(), ": ping\n\n")
	c.Response().Flush()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case msg := <-ch:
			fmt.Fprintf(c.Response(), "event: hand\n")
			for _, line := range strings.Split(msg, "\n") {
				fmt.Fprintf(c.Response(), "data: %s\n", line)
			}
			fmt.Fprintf(c.Response(), "\n")
			c.Response().Flush()
		}
	}
}

func (s *Server) render(c echo.Context, status int, name string, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	err := s.templates.ExecuteTemplate(c.Response(), name, data)
	if err != nil {
		s.log.Error("template.render_failed", "template", name, "err", err)
	}
	return err
}

func jsonError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}
