package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pokerhand/internal/classifier"
	"pokerhand/internal/domain"
)

const pastHandsPageSize = 100

var (
	formNumbers = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
	formSuits   = classifier.SuitNames[:]
)

type slot struct {
	Index int
}

type handView struct {
	Cards    []string
	HandType string
}

func (s *Server) classifyForm(c echo.Context) error {
	return s.renderClassifyForm(c, http.StatusOK, nil)
}

func (s *Server) renderClassifyForm(c echo.Context, status int, formErr error) error {
	slots := make([]slot, domain.HandSize)
	for i := range slots {
		slots[i] = slot{Index: i + 1}
	}

	data := map[string]any{
		"Title":   "Classify a Hand",
		"Slots":   slots,
		"Numbers": formNumbers,
		"Suits":   formSuits,
	}
	if formErr != nil {
		data["Error"] = formErr.Error()
	}
	return s.render(c, status, "classify.html", data)
}

func (s *Server) classifyHand(c echo.Context) error {
	var form HandForm
	if err := c.Bind(&form); err != nil {
		return s.renderClassifyForm(c, http.StatusBadRequest, err)
	}
	if err := s.check(form); err != nil {
		return s.renderClassifyForm(c, http.StatusBadRequest, err)
	}

	ctx := c.Request().Context()
	rec, err := s.processor.Process(ctx, newSubmission(form.Hand()))
	if _, ok := domain.AsValidation(err); ok {
		return s.renderClassifyForm(c, http.StatusBadRequest, err)
	}
	if err != nil {
		s.log.Error("hand.process_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save hand")
	}

	joke := s.jokes.Tell(ctx)

	return s.render(c, http.StatusOK, "classifyHand.html", map[string]any{
		"Title":       rec.HandType,
		"Cards":       cardStrings(rec.Hand),
		"HandType":    rec.HandType,
		"Description": rec.Description,
		"Joke":        joke,
	})
}

// pastHands lists every stored hand in submission order, one page at a time.
func (s *Server) pastHands(c echo.Context) error {
	page := 1
	if err := echo.QueryParamsBinder(c).Int("page", &page).BindError(); err != nil || page < 1 {
		page = 1
	}

	ctx := c.Request().Context()
	total, err := s.hands.Count(ctx)
	if err != nil {
		s.log.Error("hands.count_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load hands")
	}

	offset := (page - 1) * pastHandsPageSize
	records, err := s.hands.FindAll(ctx, pastHandsPageSize, offset)
	if err != nil {
		s.log.Error("hands.list_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load hands")
	}

	views := make([]handView, len(records))
	for i, r := range records {
		views[i] = handView{Cards: cardStrings(r.Hand), HandType: r.HandType}
	}

	data := map[string]any{
		"Title": "Past Hands",
		"Hands": views,
		"Total": total,
		"From":  offset + 1,
		"To":    offset + len(views),
	}
	if page > 1 {
		data["PrevPage"] = page - 1
	}
	if offset+len(views) < total {
		data["NextPage"] = page + 1
	}
	return s.render(c, http.StatusOK, "pastHands.html", data)
}

func (s *Server) getHands(c echo.Context) error {
	limit, offset := 50, 0
	if err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError(); err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.hands.FindAll(c.Request().Context(), limit, offset)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	if records == nil {
		records = []domain.HandRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// submitHand queues the hand when a publisher is configured and classifies inline
// otherwise. Invalid hands are rejected before they reach the queue.
func (s *Server) submitHand(c echo.Context) error {
	var req HandRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	if _, err := classifier.Classify(req.Hand); err != nil {
		return c.JSON(http.StatusBadRequest, validationBody(err))
	}

	ctx := c.Request().Context()
	sub := newSubmission(req.Hand)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, sub); err != nil {
			return jsonError(c, http.StatusServiceUnavailable, err)
		}
		return c.JSON(http.StatusAccepted, map[string]string{"id": sub.ID, "status": "queued"})
	}

	rec, err := s.processor.Process(ctx, sub)
	if _, ok := domain.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, validationBody(err))
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) deleteHands(c echo.Context) error {
	ctx := c.Request().Context()

	n, err := s.hands.DeleteAll(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	if s.stats != nil {
		if err := s.stats.Reset(ctx); err != nil {
			s.log.Warn("stats.reset_failed", "err", err)
		}
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}

func newSubmission(hand domain.Hand) domain.Submission {
	return domain.Submission{
		ID:          uuid.NewString(),
		Hand:        hand,
		SubmittedAt: time.Now().UTC(),
	}
}

func cardStrings(hand domain.Hand) []string {
	out := make([]string, len(hand))
	for i, c := range hand {
		out[i] = c.String()
	}
	return out
}

func validationBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	if ve, ok := domain.AsValidation(err); ok {
		body["field"] = ve.Field
	}
	return body
}
