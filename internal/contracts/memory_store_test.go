package contracts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractmanage/pkg/elementtype"
	"github.com/contractmanage/pkg/models"
)

func TestMemoryStoreInTxCommitAndRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.InTx(ctx, func(q Queries) error {
		return q.InsertContract(ctx, &models.Contract{ContractName: "committed"})
	})
	require.NoError(t, err)

	sentinel := errors.New("abort")
	err = store.InTx(ctx, func(q Queries) error {
		c := models.Contract{ContractName: "rolled back"}
		require.NoError(t, q.InsertContract(ctx, &c))
		// Visible inside the transaction.
		_, err := q.GetContract(ctx, c.ContractID)
		require.NoError(t, err)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.GetContract(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	c := models.Contract{ContractName: "next"}
	require.NoError(t, store.InsertContract(ctx, &c))
	assert.Equal(t, int64(2), c.ContractID, "ids consumed by a rolled back transaction are reused")
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	el := models.ContractElement{ContractID: 1, Content: models.StringPtr("original")}
	require.NoError(t, store.InsertElement(ctx, &el))
	*el.Content = "mutated by caller"

	got, err := store.GetElement(ctx, el.ElementID)
	require.NoError(t, err)
	assert.Equal(t, "original", *got.Content)

	*got.Content = "mutated again"
	again, err := store.GetElement(ctx, el.ElementID)
	require.NoError(t, err)
	assert.Equal(t, "original", *again.Content)
}

func TestMemoryStoreElementFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, el := range []models.ContractElement{
		{ContractID: 1, ElementType: elementtype.Paragraph, OrderIndex: 2},
		{ContractID: 1, ElementType: elementtype.Clause, OrderIndex: 1},
		{ContractID: 1, ElementType: elementtype.Clause, OrderIndex: 1},
		{ContractID: 2, ElementType: elementtype.Clause, OrderIndex: 0},
	} {
		require.NoError(t, store.InsertElement(ctx, &el))
	}

	els, err := store.ListElements(ctx, ElementFilter{ContractID: 1})
	require.NoError(t, err)
	var ids []int64
	for _, e := range els {
		ids = append(ids, e.ElementID)
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)

	clauses, err := store.ListElements(ctx, ElementFilter{ContractID: 1, ElementType: elementtype.Clause})
	require.NoError(t, err)
	assert.Len(t, clauses, 2)

	n, err := store.DeleteElements(ctx, ElementFilter{ContractID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rest, err := store.ListElements(ctx, ElementFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(2), rest[0].ContractID)
}

func TestMemoryStoreExplicitIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertClause(ctx, &models.Clause{ClauseID: 50, Title: "fixed"}))
	auto := models.Clause{Title: "auto"}
	require.NoError(t, store.InsertClause(ctx, &auto))
	assert.Equal(t, int64(51), auto.ClauseID)

	cfg := models.TemplateElementConfig{ConfigID: 7, TemplateID: 3}
	require.NoError(t, store.InsertTemplateConfig(ctx, &cfg))
	next := models.TemplateElementConfig{TemplateID: 3}
	require.NoError(t, store.InsertTemplateConfig(ctx, &next))
	assert.Equal(t, int64(8), next.ConfigID)

	configs, err := store.ListTemplateConfigs(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, configs, 2)
}

func TestMemoryStoreRejectsTakenIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertClause(ctx, &models.Clause{ClauseID: 100, Title: "First"}))
	err := store.InsertClause(ctx, &models.Clause{ClauseID: 100, Title: "Second"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	got, err := store.GetClause(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	require.NoError(t, store.InsertTemplateConfig(ctx, &models.TemplateElementConfig{ConfigID: 7, TemplateID: 1}))
	err = store.InsertTemplateConfig(ctx, &models.TemplateElementConfig{ConfigID: 7, TemplateID: 2})
	assert.ErrorIs(t, err, ErrDuplicateID)

	configs, err := store.ListTemplateConfigs(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestMemoryStoreFaultHook(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	store.SetFault(func(op Op) error {
		if op == OpInsertClause {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, store.InsertClause(ctx, &models.Clause{Title: "x"}), boom)
	assert.NoError(t, store.InsertContract(ctx, &models.Contract{ContractName: "ok"}))

	clauses, err := store.ListClauses(ctx, ClauseFilter{})
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestMemoryStoreConcurrentTransactions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InTx(ctx, func(q Queries) error {
				c := models.Contract{ContractName: "c"}
				if err := q.InsertContract(ctx, &c); err != nil {
					return err
				}
				return q.InsertElement(ctx, &models.ContractElement{ContractID: c.ContractID})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	els, err := store.ListElements(ctx, ElementFilter{})
	require.NoError(t, err)
	assert.Len(t, els, 20)
	seen := map[int64]bool{}
	for _, e := range els {
		assert.False(t, seen[e.ContractID], "contract %d has more than one element", e.ContractID)
		seen[e.ContractID] = true
	}
}
