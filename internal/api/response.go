package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/contractmanage/internal/contracts"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ResponseCode pairs a business code with the HTTP status it is served as.
type ResponseCode struct {
	Biz    int
	Status int
	Label  string
}

var (
	CodeContractNotFound         = ResponseCode{1001, http.StatusNotFound, "CONTRACT_NOT_FOUND"}
	CodeContractCreateError      = ResponseCode{1002, http.StatusInternalServerError, "CONTRACT_CREATE_ERROR"}
	CodeContractDeleteError      = ResponseCode{1003, http.StatusInternalServerError, "CONTRACT_DELETE_ERROR"}
	CodeContractTemplateNotFound = ResponseCode{1005, http.StatusNotFound, "CONTRACT_TEMPLATE_NOT_FOUND"}
	CodeContractTemplateEmpty    = ResponseCode{1006, http.StatusBadRequest, "CONTRACT_TEMPLATE_CONFIG_EMPTY"}

	CodeElementNotFound    = ResponseCode{2001, http.StatusNotFound, "ELEMENT_NOT_FOUND"}
	CodeElementCreateError = ResponseCode{2002, http.StatusInternalServerError, "ELEMENT_CREATE_ERROR"}
	CodeElementUpdateError = ResponseCode{2003, http.StatusInternalServerError, "ELEMENT_UPDATE_ERROR"}
	CodeElementDeleteError = ResponseCode{2004, http.StatusInternalServerError, "ELEMENT_DELETE_ERROR"}

	CodeClauseNotFound        = ResponseCode{4001, http.StatusNotFound, "CLAUSE_NOT_FOUND"}
	CodeClauseCategoryInvalid = ResponseCode{4005, http.StatusBadRequest, "CLAUSE_CATEGORY_INVALID"}

	CodeBadRequest    = ResponseCode{400, http.StatusBadRequest, "BAD_REQUEST"}
	CodeInternalError = ResponseCode{500, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"}
)

// Message renders "[<biz>]<label>:<detail>".
func (rc ResponseCode) Message(detail string) string {
	return fmt.Sprintf("[%d]%s:%s", rc.Biz, rc.Label, detail)
}

// apiError carries the response code chosen for a handler failure.
type apiError struct {
	code   ResponseCode
	detail string
	err    error
}

func (e *apiError) Error() string { return e.code.Message(e.detail) }
func (e *apiError) Unwrap() error { return e.err }

// fail classifies a service error. onPersistence is the code used when the
// store itself failed.
func fail(err error, onPersistence ResponseCode) error {
	return &apiError{code: classify(err, onPersistence), detail: err.Error(), err: err}
}

func classify(err error, onPersistence ResponseCode) ResponseCode {
	switch contracts.KindOf(err) {
	case contracts.KindNotFound:
		switch contracts.ResourceOf(err) {
		case contracts.ResourceContract:
			return CodeContractNotFound
		case contracts.ResourceElement:
			return CodeElementNotFound
		case contracts.ResourceTemplate:
			return CodeContractTemplateNotFound
		case contracts.ResourceClause:
			return CodeClauseNotFound
		}
	case contracts.KindEmptyTemplate:
		// Callers cannot tell "no such template" from "nothing in it".
		return CodeContractTemplateNotFound
	case contracts.KindInvalidInput:
		if contracts.ResourceOf(err) == contracts.ResourceClause {
			return CodeClauseCategoryInvalid
		}
		return CodeBadRequest
	case contracts.KindPersistence:
		return onPersistence
	}
	return CodeInternalError
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Code: status, Message: message, Data: data})
}

// errorHandler renders every error as a Response envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var code ResponseCode
	var detail string

	var ae *apiError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae):
		code, detail = ae.code, ae.detail
	case errors.As(err, &he):
		code = ResponseCode{Biz: he.Code, Status: he.Code, Label: labelFor(he.Code)}
		detail = fmt.Sprint(he.Message)
	default:
		code, detail = CodeInternalError, "unexpected error"
	}

	if code.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("biz_code", code.Biz).Msg("request failed")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code.Status)
	} else {
		werr = c.JSON(code.Status, Response{Code: code.Status, Message: code.Message(detail)})
	}
	if werr != nil {
		log.Error().Err(werr).Msg("failed to write error response")
	}
}

func labelFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest.Label
	case http.StatusInternalServerError:
		return CodeInternalError.Label
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	default:
		return "HTTP_ERROR"
	}
}
