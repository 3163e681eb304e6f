package estoque

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/lagiovanas/estoque/internal/platform/storage"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string, _ Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestRepo(t *testing.T, mutate func(*Config)) (*Repository, *recordingNotifier) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := storage.NewRedis(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(store, cfg, notifier, logger), notifier
}

func TestAddItemRejectsDuplicateNames(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "Muçarela", "kg")
	require.NoError(t, err)

	// Same name modulo case and diacritics is still a duplicate.
	_, err = repo.AddItem(ctx, "MUCARELA", "kg")
	require.ErrorIs(t, err, ErrDuplicateName)
	_, err = repo.AddItem(ctx, "  muçarela  ", "un")
	require.ErrorIs(t, err, ErrDuplicateName)

	items, err := repo.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestAddItemRequiresNameAndUnit(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "", "kg")
	require.ErrorIs(t, err, ErrValidation)
	_, err = repo.AddItem(ctx, "Orégano", "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateItemAllowsSelfRename(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Tomate", "kg")
	require.NoError(t, err)
	other, err := repo.AddItem(ctx, "Cebola", "kg")
	require.NoError(t, err)

	// Recasing its own name is fine.
	require.NoError(t, repo.UpdateItem(ctx, item.ID, "TOMATE", "cx"))

	// Taking another item's name is not.
	err = repo.UpdateItem(ctx, other.ID, "tomate", "kg")
	require.ErrorIs(t, err, ErrDuplicateName)

	err = repo.UpdateItem(ctx, "insumo-inexistente", "Alho", "kg")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRecordCountDerivesAndAppendsHistory(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Muçarela", "kg")
	require.NoError(t, err)

	count, err := repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		item.ID: {Stock: 50, Dispatched: 20, LineQty: 5},
	})
	require.NoError(t, err)

	detail := count.Details[item.ID]
	require.Equal(t, 30.0, detail.Leftover)
	require.Equal(t, 35.0, detail.FinalPosition)
	require.Equal(t, "Muçarela", detail.Name)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, count.ID, current.ID)

	history, err := repo.CountHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, count.ID, history[0].ID)
}

func TestRecordCountValidatesInput(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()
	lines := map[string]CountLine{"insumo-x": {Stock: 1}}

	_, err := repo.RecordCount(ctx, "2026-09-01", "  ", lines)
	require.ErrorIs(t, err, ErrValidation)
	_, err = repo.RecordCount(ctx, "", "Ana", lines)
	require.ErrorIs(t, err, ErrValidation)
	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestEntryCreditsSnapshot(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Calabresa", "kg")
	require.NoError(t, err)
	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		item.ID: {Stock: 50, Dispatched: 20, LineQty: 5},
	})
	require.NoError(t, err)

	entry, err := repo.RegisterEntry(ctx, item.ID, 5, "")
	require.NoError(t, err)
	require.NotEmpty(t, entry.Date)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	detail := current.Details[item.ID]
	require.Equal(t, 35.0, detail.Leftover)
	require.Equal(t, 40.0, detail.FinalPosition)
	// The counted inputs never move.
	require.Equal(t, 50.0, detail.Stock)
	require.Equal(t, 20.0, detail.Dispatched)
	require.Equal(t, 5.0, detail.LineQty)
}

func TestEntryRoundTripRestoresSnapshot(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Frango", "kg")
	require.NoError(t, err)
	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		item.ID: {Stock: 12, Dispatched: 2, LineQty: 1},
	})
	require.NoError(t, err)

	entry, err := repo.RegisterEntry(ctx, item.ID, 7.5, "2026-09-01")
	require.NoError(t, err)
	removed, err := repo.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, removed)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	detail := current.Details[item.ID]
	require.Equal(t, 10.0, detail.Leftover)
	require.Equal(t, 11.0, detail.FinalPosition)

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpdateEntryAppliesDelta(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Bacon", "kg")
	require.NoError(t, err)
	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		item.ID: {Stock: 10, Dispatched: 0, LineQty: 0},
	})
	require.NoError(t, err)

	entry, err := repo.RegisterEntry(ctx, item.ID, 4, "2026-09-01")
	require.NoError(t, err)

	// 4 -> 6.5 shifts the snapshot by +2.5.
	updated, err := repo.UpdateEntryQuantity(ctx, entry.ID, 6.5)
	require.NoError(t, err)
	require.True(t, updated)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 16.5, current.Details[item.ID].Leftover)
	require.Equal(t, 16.5, current.Details[item.ID].FinalPosition)

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Equal(t, 6.5, entries[0].Quantity)

	// A sequence of edits lands where one direct edit would.
	updated, err = repo.UpdateEntryQuantity(ctx, entry.ID, 2)
	require.NoError(t, err)
	require.True(t, updated)
	updated, err = repo.UpdateEntryQuantity(ctx, entry.ID, 9)
	require.NoError(t, err)
	require.True(t, updated)

	current, err = repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 19.0, current.Details[item.ID].Leftover)
}

func TestEntryQuantityBounds(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Azeitona", "kg")
	require.NoError(t, err)

	_, err = repo.RegisterEntry(ctx, item.ID, 0, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = repo.RegisterEntry(ctx, item.ID, -3, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = repo.RegisterEntry(ctx, item.ID, 10001, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = repo.UpdateEntryQuantity(ctx, "entrada-qualquer", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMissingIDsAreNotErrors(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	removed, err := repo.DeleteEntry(ctx, "entrada-inexistente")
	require.NoError(t, err)
	require.False(t, removed)

	updated, err := repo.UpdateEntryQuantity(ctx, "entrada-inexistente", 5)
	require.NoError(t, err)
	require.False(t, updated)

	removed, err = repo.DeleteCount(ctx, "contagem-inexistente")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestSnapshotPolicySkip(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Rúcula", "maço")
	require.NoError(t, err)

	_, err = repo.RegisterEntry(ctx, item.ID, 3, "")
	require.NoError(t, err)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.Nil(t, current, "skip policy never fabricates a snapshot")

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the entry itself is always recorded")
}

func TestSnapshotPolicyCreate(t *testing.T) {
	repo, _ := newTestRepo(t, func(cfg *Config) { cfg.SnapshotPolicy = SnapshotCreate })
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Rúcula", "maço")
	require.NoError(t, err)

	_, err = repo.RegisterEntry(ctx, item.ID, 3, "2026-09-01")
	require.NoError(t, err)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, SystemResponsible, current.Responsible)
	detail := current.Details[item.ID]
	require.Equal(t, 3.0, detail.Leftover)
	require.Equal(t, 3.0, detail.FinalPosition)
	require.Zero(t, detail.Stock)
}

func TestAdjustNeverFabricates(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	itemA, err := repo.AddItem(ctx, "Palmito", "kg")
	require.NoError(t, err)
	itemB, err := repo.AddItem(ctx, "Milho", "kg")
	require.NoError(t, err)

	// Entry for an untracked item under skip policy, then a count that
	// tracks only itemA.
	entry, err := repo.RegisterEntry(ctx, itemB.ID, 2, "2026-09-01")
	require.NoError(t, err)
	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		itemA.ID: {Stock: 5},
	})
	require.NoError(t, err)

	// Deleting the entry must not invent a detail for itemB.
	removed, err := repo.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, removed)

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	_, tracked := current.Details[itemB.ID]
	require.False(t, tracked)
}

func TestDeleteItemCascades(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	keep, err := repo.AddItem(ctx, "Muçarela", "kg")
	require.NoError(t, err)
	gone, err := repo.AddItem(ctx, "Catupiry", "kg")
	require.NoError(t, err)

	_, err = repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		keep.ID: {Stock: 10},
		gone.ID: {Stock: 4},
	})
	require.NoError(t, err)
	_, err = repo.RegisterEntry(ctx, gone.ID, 2, "2026-09-01")
	require.NoError(t, err)
	_, err = repo.RegisterEntry(ctx, keep.ID, 1, "2026-09-01")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItemData(ctx, gone.ID))

	items, err := repo.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, keep.ID, items[0].ID)

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, keep.ID, entries[0].ItemID)

	history, err := repo.CountHistory(ctx)
	require.NoError(t, err)
	for _, count := range history {
		_, tracked := count.Details[gone.ID]
		require.False(t, tracked)
	}

	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	_, tracked := current.Details[gone.ID]
	require.False(t, tracked)

	err = repo.DeleteItemData(ctx, gone.ID)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestHistoryDivergenceIsPreserved(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Presunto", "kg")
	require.NoError(t, err)
	count, err := repo.RecordCount(ctx, "2026-09-01", "Ana", map[string]CountLine{
		item.ID: {Stock: 20, Dispatched: 5, LineQty: 0},
	})
	require.NoError(t, err)

	_, err = repo.RegisterEntry(ctx, item.ID, 10, "2026-09-01")
	require.NoError(t, err)

	// The snapshot moved; the history record it was appended from did not.
	current, err := repo.CurrentCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 25.0, current.Details[item.ID].Leftover)

	history, err := repo.CountHistory(ctx)
	require.NoError(t, err)
	require.Equal(t, count.ID, history[0].ID)
	require.Equal(t, 15.0, history[0].Details[item.ID].Leftover)
}

func TestHistoryReadCapsLeaveStorageIntact(t *testing.T) {
	repo, notifier := newTestRepo(t, func(cfg *Config) { cfg.MaxEntryHistory = 3 })
	ctx := context.Background()

	item, err := repo.AddItem(ctx, "Farinha", "kg")
	require.NoError(t, err)
	var ids []string
	for i := 0; i < 5; i++ {
		entry, err := repo.RegisterEntry(ctx, item.ID, float64(i+1), "2026-09-01")
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, ids[2], entries[0].ID, "the most recent records win")
	require.Positive(t, notifier.count())

	// The cap is read-side only: a full export still sees everything.
	doc, err := repo.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, doc.EntryHistory, 5)

	// And mutations reach records the capped read hides.
	removed, err := repo.DeleteEntry(ctx, ids[0])
	require.NoError(t, err)
	require.True(t, removed)
}

func TestSaveItemsTruncatesOverCap(t *testing.T) {
	repo, notifier := newTestRepo(t, func(cfg *Config) { cfg.MaxItems = 2 })
	ctx := context.Background()

	items := []Item{
		{ID: "insumo-a", Name: "A", Unit: "kg"},
		{ID: "insumo-b", Name: "B", Unit: "kg"},
		{ID: "insumo-c", Name: "C", Unit: "kg"},
	}
	require.NoError(t, repo.SaveItems(ctx, items))

	stored, err := repo.Items(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "insumo-a", stored[0].ID)
	require.Positive(t, notifier.count())
}

func TestCorruptCollectionFallsBackToEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := storage.NewRedis(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := DefaultConfig()
	repo := NewRepository(store, cfg, NopNotifier{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, mr.Set(cfg.Keys.Items, "{definitely not json"))

	items, err := repo.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}
