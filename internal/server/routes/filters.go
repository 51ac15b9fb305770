package routes

import (
	"github.com/cicdguard/backend/pkg/filter"

	"github.com/labstack/echo/v4"
)

type filterBody struct {
	Category string `json:"category" query:"category" validate:"required,oneof=jenkins action github jfrog"`
	Term     string `json:"term" query:"term" validate:"required,max=128"`
}

type filterResponse struct {
	Message string        `json:"message"`
	Changed bool          `json:"changed"`
	Filters []filter.Term `json:"filters"`
	Query   string        `json:"query"`
	Error   string        `json:"error,omitempty"`
}

func activeFilters(m *filter.Manager) []filter.Term {
	terms := m.State().All()
	if terms == nil {
		return []filter.Term{}
	}
	return terms
}

func bindFilter(c echo.Context) (filter.Category, string, error) {
	data := new(filterBody)
	if err := c.Bind(data); err != nil {
		return "", "", err
	}
	if err := c.Validate(data); err != nil {
		return "", "", err
	}
	category, err := filter.ParseCategory(data.Category)
	if err != nil {
		return "", "", err
	}
	return category, data.Term, nil
}
