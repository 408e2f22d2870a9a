package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/pkg/models"
)

func pathID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return id, nil
}

type contractBody struct {
	ContractName string `json:"contractName"`
}

func (s *Server) createContract(c echo.Context) error {
	var body contractBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	contract, err := s.svc.CreatePlain(c.Request().Context(), models.Contract{ContractName: body.ContractName})
	if err != nil {
		return fail(err, CodeContractCreateError)
	}
	return ok(c, http.StatusCreated, "contract created", contract)
}

func (s *Server) createFromTemplate(c echo.Context) error {
	templateID, err := pathID(c, "templateId")
	if err != nil {
		return err
	}
	var body contractBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	created, err := s.svc.CreateFromTemplate(c.Request().Context(), templateID, models.Contract{ContractName: body.ContractName})
	if err != nil {
		return fail(err, CodeContractCreateError)
	}
	return ok(c, http.StatusCreated, "contract created from template", created)
}

func (s *Server) getContract(c echo.Context) error {
	id, err := pathID(c, "contractId")
	if err != nil {
		return err
	}
	contract, err := s.svc.GetContract(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", contract)
}

func (s *Server) deleteContract(c echo.Context) error {
	id, err := pathID(c, "contractId")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteContract(c.Request().Context(), id); err != nil {
		return fail(err, CodeContractDeleteError)
	}
	return ok(c, http.StatusOK, "contract deleted", nil)
}

func (s *Server) listElements(c echo.Context) error {
	id, err := pathID(c, "contractId")
	if err != nil {
		return err
	}
	els, err := s.svc.ListElements(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", els)
}

func (s *Server) listClauseElements(c echo.Context) error {
	id, err := pathID(c, "contractId")
	if err != nil {
		return err
	}
	els, err := s.svc.ListClauseElements(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", els)
}

func (s *Server) createElement(c echo.Context) error {
	var body models.ContractElement
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	el, err := s.svc.CreateElement(c.Request().Context(), body)
	if err != nil {
		return fail(err, CodeElementCreateError)
	}
	return ok(c, http.StatusCreated, "element created", el)
}

func (s *Server) getElement(c echo.Context) error {
	id, err := pathID(c, "elementId")
	if err != nil {
		return err
	}
	el, err := s.svc.GetElement(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", el)
}

func (s *Server) updateElement(c echo.Context) error {
	id, err := pathID(c, "elementId")
	if err != nil {
		return err
	}
	var patch contracts.ElementPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	el, err := s.svc.UpdateElement(c.Request().Context(), id, patch)
	if err != nil {
		return fail(err, CodeElementUpdateError)
	}
	return ok(c, http.StatusOK, "element updated", el)
}

func (s *Server) deleteElement(c echo.Context) error {
	id, err := pathID(c, "elementId")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteElement(c.Request().Context(), id); err != nil {
		return fail(err, CodeElementDeleteError)
	}
	return ok(c, http.StatusOK, "element deleted", nil)
}

func (s *Server) listClauses(c echo.Context) error {
	ctx := c.Request().Context()
	title := strings.TrimSpace(c.QueryParam("title"))
	category := strings.TrimSpace(c.QueryParam("category"))

	var (
		clauses []models.Clause
		err     error
	)
	switch {
	case title != "" && category != "":
		return echo.NewHTTPError(http.StatusBadRequest, "filter by title or by category, not both")
	case title != "":
		clauses, err = s.svc.ClausesByTitle(ctx, title)
	case category != "":
		clauses, err = s.svc.ClausesByCategory(ctx, category)
	default:
		clauses, err = s.svc.ListClauses(ctx)
	}
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", clauses)
}

func (s *Server) clauseCategories(c echo.Context) error {
	return ok(c, http.StatusOK, "ok", s.svc.ClauseCategories())
}

func (s *Server) getClause(c echo.Context) error {
	id, err := pathID(c, "clauseId")
	if err != nil {
		return err
	}
	clause, err := s.svc.GetClause(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", clause)
}

func (s *Server) templateElements(c echo.Context) error {
	id, err := pathID(c, "templateId")
	if err != nil {
		return err
	}
	configs, err := s.svc.ListTemplateConfigs(c.Request().Context(), id)
	if err != nil {
		return fail(err, CodeInternalError)
	}
	return ok(c, http.StatusOK, "ok", configs)
}
