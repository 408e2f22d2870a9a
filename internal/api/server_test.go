package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/pkg/models"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*Server, *contracts.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := contracts.NewMemoryStore()

	require.NoError(t, store.InsertClause(ctx, &models.Clause{ClauseID: 100, Category: models.CategoryConfidentiality, Title: "Confidentiality", Content: "Keep it secret."}))
	require.NoError(t, store.InsertClause(ctx, &models.Clause{ClauseID: 101, Category: models.CategoryPayment, Title: "Payment", Content: "Pay on time."}))
	for _, cfg := range []models.TemplateElementConfig{
		{TemplateID: 1, OrderIndex: 2, ElementType: "CLAUSE", ContentSource: models.SourceClauseLibrary, SourceClauseID: models.Int64Ptr(100)},
		{TemplateID: 1, OrderIndex: 1, ElementType: "HEADER", ContentSource: models.SourceStatic, StaticContent: models.StringPtr("NDA")},
		{TemplateID: 1, OrderIndex: 3, ElementType: "SIGNATURE", ContentSource: models.SourceStatic},
	} {
		require.NoError(t, store.InsertTemplateConfig(ctx, &cfg))
	}

	return NewServer(contracts.NewService(store), Options{Port: 0}), store
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCreateFromTemplateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/contracts/from-template/1", `{"contractName":"Mutual NDA"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusCreated, env.Code)

	var created struct {
		ContractID   int64  `json:"contractId"`
		ContractName string `json:"contractName"`
		Elements     []struct {
			ElementType    string  `json:"elementType"`
			Content        *string `json:"content"`
			SourceClauseID *int64  `json:"sourceClauseId"`
			OrderIndex     int     `json:"orderIndex"`
		} `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Mutual NDA", created.ContractName)
	require.Len(t, created.Elements, 3)
	assert.Equal(t, "HEADER_1", created.Elements[0].ElementType)
	assert.Equal(t, "Keep it secret.", *created.Elements[1].Content)
	assert.Equal(t, int64(100), *created.Elements[1].SourceClauseID)
	assert.Equal(t, "SIGNATURE", created.Elements[2].ElementType)
	assert.Nil(t, created.Elements[2].Content)

	rec, env = do(t, s, http.MethodGet, "/api/contracts/1/clause-elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var clauses []models.ContractElement
	require.NoError(t, json.Unmarshal(env.Data, &clauses))
	assert.Len(t, clauses, 1)
}

func TestCreateFromTemplateEndpointErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/contracts/from-template/9", `{"contractName":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[1005]CONTRACT_TEMPLATE_NOT_FOUND:"), env.Message)
	assert.Equal(t, "null", string(env.Data))

	rec, env = do(t, s, http.MethodPost, "/api/contracts/from-template/abc", `{"contractName":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[400]BAD_REQUEST:"), env.Message)

	rec, _ = do(t, s, http.MethodPost, "/api/contracts/from-template/1", `{"contractName":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateFromTemplateEndpointPersistenceFailure(t *testing.T) {
	s, store := newTestServer(t)
	store.SetFault(func(op contracts.Op) error {
		if op == contracts.OpInsertElement {
			return errors.New("connection lost")
		}
		return nil
	})

	rec, env := do(t, s, http.MethodPost, "/api/contracts/from-template/1", `{"contractName":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[1002]CONTRACT_CREATE_ERROR:"), env.Message)

	rec, env = do(t, s, http.MethodGet, "/api/contracts/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[1001]CONTRACT_NOT_FOUND:"), env.Message)
}

func TestContractLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/contracts", `{"contractName":"Blank"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contract models.Contract
	require.NoError(t, json.Unmarshal(env.Data, &contract))
	assert.Equal(t, int64(1), contract.ContractID)

	rec, env = do(t, s, http.MethodPost, "/api/contract-elements", `{"contractId":1,"elementType":"paragraph","content":"Hello","orderIndex":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var el models.ContractElement
	require.NoError(t, json.Unmarshal(env.Data, &el))
	assert.Equal(t, "PARAGRAPH", string(el.ElementType))

	rec, env = do(t, s, http.MethodPut, "/api/contract-elements/1", `{"content":"Hello again"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &el))
	assert.Equal(t, "Hello again", *el.Content)
	assert.Equal(t, 1, el.OrderIndex)

	rec, env = do(t, s, http.MethodGet, "/api/contract-elements/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[2001]ELEMENT_NOT_FOUND:"), env.Message)

	rec, env = do(t, s, http.MethodGet, "/api/contracts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var full models.ContractWithElements
	require.NoError(t, json.Unmarshal(env.Data, &full))
	assert.Len(t, full.Elements, 1)

	rec, _ = do(t, s, http.MethodDelete, "/api/contracts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, http.MethodGet, "/api/contract-elements/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodDelete, "/api/contracts/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClauseEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/clauses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var clauses []models.Clause
	require.NoError(t, json.Unmarshal(env.Data, &clauses))
	assert.Len(t, clauses, 2)

	rec, env = do(t, s, http.MethodGet, "/api/clauses?title=PAY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &clauses))
	require.Len(t, clauses, 1)
	assert.Equal(t, int64(101), clauses[0].ClauseID)

	rec, env = do(t, s, http.MethodGet, "/api/clauses?category=confidentiality", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &clauses))
	require.Len(t, clauses, 1)
	assert.Equal(t, int64(100), clauses[0].ClauseID)

	rec, env = do(t, s, http.MethodGet, "/api/clauses?category=weather", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[4005]CLAUSE_CATEGORY_INVALID:"), env.Message)

	rec, env = do(t, s, http.MethodGet, "/api/clauses/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []string
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Len(t, cats, 18)

	rec, env = do(t, s, http.MethodGet, "/api/clauses/77", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[4001]CLAUSE_NOT_FOUND:"), env.Message)
}

func TestTemplateElementsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/templates/1/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var configs []models.TemplateElementConfig
	require.NoError(t, json.Unmarshal(env.Data, &configs))
	require.Len(t, configs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{configs[0].OrderIndex, configs[1].OrderIndex, configs[2].OrderIndex})

	rec, _ = do(t, s, http.MethodGet, "/api/templates/5/elements", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s, _ := newTestServer(t)
	rec, env := do(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "[404]NOT_FOUND:"), env.Message)
}

func TestRateLimiter(t *testing.T) {
	store := contracts.NewMemoryStore()
	s := NewServer(contracts.NewService(store), Options{RateLimit: 1})

	statuses := map[int]int{}
	for i := 0; i < 10; i++ {
		rec, _ := do(t, s, http.MethodGet, "/api/clauses", "")
		statuses[rec.Code]++
	}
	assert.NotZero(t, statuses[http.StatusOK])
	assert.NotZero(t, statuses[http.StatusTooManyRequests])
}

func TestResponseCodesAreDistinct(t *testing.T) {
	codes := []ResponseCode{
		CodeContractNotFound, CodeContractCreateError, CodeContractDeleteError,
		CodeContractTemplateNotFound, CodeContractTemplateEmpty,
		CodeElementNotFound, CodeElementCreateError, CodeElementUpdateError, CodeElementDeleteError,
		CodeClauseNotFound, CodeClauseCategoryInvalid, CodeBadRequest, CodeInternalError,
	}
	seen := map[int]string{}
	for _, c := range codes {
		if prev, dup := seen[c.Biz]; dup {
			t.Fatalf("business code %d used by %s and %s", c.Biz, prev, c.Label)
		}
		seen[c.Biz] = c.Label
	}
	assert.Equal(t, "[1001]CONTRACT_NOT_FOUND:contract 3 does not exist", CodeContractNotFound.Message("contract 3 does not exist"))
}
