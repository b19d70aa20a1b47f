package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pokerhand/internal/domain"
)

func (s *Server) applyForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "apply.html", map[string]any{"Title": "Application"})
}

func (s *Server) apply(c echo.Context) error {
	data := map[string]any{"Title": "Application"}

	var form ApplicationForm
	if err := c.Bind(&form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "apply.html", data)
	}
	if err := s.check(form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "apply.html", data)
	}

	app, err := s.apps.SaveApplication(c.Request().Context(), domain.Application{
		Name:       strings.TrimSpace(form.Name),
		Email:      strings.TrimSpace(form.Email),
		GPA:        form.GPA,
		Background: form.Background,
	})
	if err != nil {
		s.log.Error("application.save_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save application")
	}

	data["Saved"] = app
	return s.render(c, http.StatusOK, "apply.html", data)
}

func (s *Server) reviewForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "reviewApplication.html", map[string]any{"Title": "Review Application", "Email": ""})
}

func (s *Server) reviewApplication(c echo.Context) error {
	data := map[string]any{"Title": "Review Application"}

	var form EmailForm
	if err := c.Bind(&form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "reviewApplication.html", data)
	}
	data["Email"] = form.Email
	if err := s.check(form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "reviewApplication.html", data)
	}

	data["Searched"] = true

	app, err := s.apps.FindByEmail(c.Request().Context(), form.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return s.render(c, http.StatusNotFound, "reviewApplication.html", data)
	}
	if err != nil {
		s.log.Error("application.lookup_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not look up application")
	}

	data["Application"] = app
	return s.render(c, http.StatusOK, "reviewApplication.html", data)
}

func (s *Server) gpaForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "adminGPA.html", map[string]any{"Title": "Select by GPA"})
}

func (s *Server) selectByGPA(c echo.Context) error {
	data := map[string]any{"Title": "Select by GPA"}

	var form GPAForm
	if err := c.Bind(&form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "adminGPA.html", data)
	}
	if err := s.check(form); err != nil {
		data["Error"] = err.Error()
		return s.render(c, http.StatusBadRequest, "adminGPA.html", data)
	}

	apps, err := s.apps.FindByMinGPA(c.Request().Context(), form.GPA)
	if err != nil {
		s.log.Error("application.select_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not select applications")
	}

	data["Searched"] = true
	data["Applications"] = apps
	return s.render(c, http.StatusOK, "adminGPA.html", data)
}

func (s *Server) removeForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "adminRemove.html", map[string]any{"Title": "Remove Applications"})
}

func (s *Server) removeApplications(c echo.Context) error {
	n, err := s.apps.DeleteAllApplications(c.Request().Context())
	if err != nil {
		s.log.Error("application.remove_failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not remove applications")
	}

	s.log.Info("application.removed", "count", n)
	return s.render(c, http.StatusOK, "adminRemove.html", map[string]any{
		"Title":   "Remove Applications",
		"Removed": true,
		"Count":   n,
	})
}
