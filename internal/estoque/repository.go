package estoque

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lagiovanas/estoque/internal/platform/storage"
)

// Repository owns every read and write of the four persisted collections
// and enforces the cross-collection cascades in one place: entry
// mutations shift the current snapshot, item deletion scrubs the item
// from all collections.
//
// Operations spanning several keys are not transactional. When a write
// fails partway the earlier writes stand; the caller gets
// ErrCascadeIncomplete and the integrity check is the remediation path.
type Repository struct {
	store    storage.Store
	cfg      Config
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
	collator *collate.Collator
}

// NewRepository wires the repository. A nil notifier or logger falls back
// to a no-op sink and the default logger.
func NewRepository(store storage.Store, cfg Config, notifier Notifier, logger *slog.Logger) *Repository {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		validate: validator.New(),
		collator: collate.New(language.BrazilianPortuguese, collate.Loose),
	}
}

// Config returns the immutable configuration the repository was built
// with.
func (r *Repository) Config() Config { return r.cfg }

// load decodes key into out. Absent and corrupt values substitute the
// caller's zero value (reported via the false return); corruption is
// logged and never fatal. Only infrastructure failures propagate.
func (r *Repository) load(ctx context.Context, key string, out any) (bool, error) {
	err := r.store.Get(ctx, key, out)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case errors.Is(err, storage.ErrCorruptValue):
		r.logger.WarnContext(ctx, "stored value unreadable, using default", "key", key, "error", err)
		return false, nil
	default:
		return false, err
	}
}

// persist writes key and turns failures into notifications. The error is
// still returned so callers can abort multi-step operations.
func (r *Repository) persist(ctx context.Context, key string, value any) error {
	err := r.store.Set(ctx, key, value)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrQuotaExceeded) {
		r.notifier.Notify(ctx, "Erro ao salvar: espaço de armazenamento esgotado.", SeverityError)
	} else {
		r.notifier.Notify(ctx, "Erro ao salvar dados. Tente novamente.", SeverityError)
	}
	r.logger.ErrorContext(ctx, "persist failed", "key", key, "error", err)
	return err
}

func (r *Repository) cascadeFailed(ctx context.Context, step string, err error) error {
	r.notifier.Notify(ctx, "Operação incompleta; execute a verificação de integridade.", SeverityError)
	return fmt.Errorf("estoque: cascade step %s: %v: %w", step, err, ErrCascadeIncomplete)
}

// ---- Items ----

// Items returns the catalog. Absent or unreadable storage yields an
// empty catalog.
func (r *Repository) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	ok, err := r.load(ctx, r.cfg.Keys.Items, &items)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Item{}, nil
	}
	return items, nil
}

// SaveItems replaces the whole catalog. Lists over MaxItems are truncated
// to the cap and the user is warned; the excess is dropped, not stored.
func (r *Repository) SaveItems(ctx context.Context, items []Item) error {
	if r.cfg.MaxItems > 0 && len(items) > r.cfg.MaxItems {
		r.notifier.Notify(ctx,
			fmt.Sprintf("Catálogo excede o limite de %d insumos; mantendo apenas os %d primeiros.", r.cfg.MaxItems, r.cfg.MaxItems),
			SeverityWarning)
		items = items[:r.cfg.MaxItems]
	}
	return r.persist(ctx, r.cfg.Keys.Items, items)
}

// AddItem validates and appends a new catalog entry.
func (r *Repository) AddItem(ctx context.Context, name, unit string) (Item, error) {
	item := Item{
		ID:        NewItemID(),
		Name:      strings.TrimSpace(name),
		Unit:      strings.TrimSpace(unit),
		CreatedAt: nowISO(),
	}
	if err := r.validate.StructCtx(ctx, item); err != nil {
		return Item{}, fmt.Errorf("estoque: insumo inválido: %v: %w", err, ErrValidation)
	}

	items, err := r.Items(ctx)
	if err != nil {
		return Item{}, err
	}
	if r.nameTaken(items, item.Name, "") {
		return Item{}, fmt.Errorf("estoque: já existe insumo com o nome %q: %w", item.Name, ErrDuplicateName)
	}

	items = append(items, item)
	if err := r.SaveItems(ctx, items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateItem renames an item and/or changes its unit. The uniqueness
// check excludes the item itself, so renaming to its own name (in any
// casing) is accepted.
func (r *Repository) UpdateItem(ctx context.Context, id, name, unit string) error {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return fmt.Errorf("estoque: nome e unidade são obrigatórios: %w", ErrValidation)
	}

	items, err := r.Items(ctx)
	if err != nil {
		return err
	}
	idx := indexOfItem(items, id)
	if idx < 0 {
		return fmt.Errorf("estoque: insumo %s: %w", id, ErrItemNotFound)
	}
	if r.nameTaken(items, name, id) {
		return fmt.Errorf("estoque: já existe insumo com o nome %q: %w", name, ErrDuplicateName)
	}

	items[idx].Name = name
	items[idx].Unit = unit
	return r.SaveItems(ctx, items)
}

// DeleteItemData removes the item and every trace of it: its entries,
// its detail in every history count and its detail in the current
// snapshot. The steps are individual writes with no rollback.
func (r *Repository) DeleteItemData(ctx context.Context, id string) error {
	items, err := r.Items(ctx)
	if err != nil {
		return err
	}
	idx := indexOfItem(items, id)
	if idx < 0 {
		return fmt.Errorf("estoque: insumo %s: %w", id, ErrItemNotFound)
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := r.SaveItems(ctx, items); err != nil {
		return r.cascadeFailed(ctx, "items", err)
	}

	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return r.cascadeFailed(ctx, "entries", err)
	}
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ItemID != id {
			kept = append(kept, e)
		}
	}
	if err := r.persist(ctx, r.cfg.Keys.EntryHistory, kept); err != nil {
		return r.cascadeFailed(ctx, "entries", err)
	}

	counts, err := r.countsRaw(ctx)
	if err != nil {
		return r.cascadeFailed(ctx, "count history", err)
	}
	for i := range counts {
		delete(counts[i].Details, id)
	}
	if err := r.persist(ctx, r.cfg.Keys.CountHistory, counts); err != nil {
		return r.cascadeFailed(ctx, "count history", err)
	}

	current, err := r.CurrentCount(ctx)
	if err != nil {
		return r.cascadeFailed(ctx, "snapshot", err)
	}
	if current != nil && current.Details != nil {
		if _, ok := current.Details[id]; ok {
			delete(current.Details, id)
			if err := r.SetCurrentCount(ctx, *current); err != nil {
				return r.cascadeFailed(ctx, "snapshot", err)
			}
		}
	}
	return nil
}

// nameTaken reports whether another item already uses name, compared
// with Brazilian Portuguese collation ignoring case and diacritics.
func (r *Repository) nameTaken(items []Item, name, excludeID string) bool {
	for _, it := range items {
		if it.ID == excludeID {
			continue
		}
		if r.collator.CompareString(it.Name, name) == 0 {
			return true
		}
	}
	return false
}

func indexOfItem(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// ---- Current count snapshot ----

// CurrentCount returns the current snapshot, or nil when none was ever
// saved.
func (r *Repository) CurrentCount(ctx context.Context) (*Count, error) {
	var count *Count
	ok, err := r.load(ctx, r.cfg.Keys.CurrentCount, &count)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return count, nil
}

// SetCurrentCount replaces the current snapshot.
func (r *Repository) SetCurrentCount(ctx context.Context, count Count) error {
	return r.persist(ctx, r.cfg.Keys.CurrentCount, count)
}

// RecordCount normalizes and derives a full physical count, replaces the
// current snapshot with it and appends the same record to the history.
// Snapshot and history agree at save time; later entry mutations touch
// only the snapshot and the divergence is deliberate.
func (r *Repository) RecordCount(ctx context.Context, date, responsible string, lines map[string]CountLine) (Count, error) {
	responsible = strings.TrimSpace(responsible)
	if responsible == "" {
		return Count{}, fmt.Errorf("estoque: responsável é obrigatório: %w", ErrValidation)
	}
	if strings.TrimSpace(date) == "" {
		return Count{}, fmt.Errorf("estoque: data é obrigatória: %w", ErrValidation)
	}
	if len(lines) == 0 {
		return Count{}, fmt.Errorf("estoque: nenhum insumo contado: %w", ErrValidation)
	}

	items, err := r.Items(ctx)
	if err != nil {
		return Count{}, err
	}
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ID] = it.Name
	}

	count := Count{
		ID:          NewCountID(),
		Date:        date,
		Responsible: responsible,
		Timestamp:   nowISO(),
		Details:     make(map[string]CountDetail, len(lines)),
	}
	for itemID, line := range lines {
		count.Details[itemID] = r.cfg.NewDetail(names[itemID], line)
	}

	if err := r.SetCurrentCount(ctx, count); err != nil {
		return Count{}, err
	}
	counts, err := r.countsRaw(ctx)
	if err != nil {
		return Count{}, r.cascadeFailed(ctx, "count history", err)
	}
	counts = append(counts, count)
	if err := r.persist(ctx, r.cfg.Keys.CountHistory, counts); err != nil {
		return Count{}, r.cascadeFailed(ctx, "count history", err)
	}
	return count, nil
}

// ---- Count history ----

func (r *Repository) countsRaw(ctx context.Context) ([]Count, error) {
	var counts []Count
	ok, err := r.load(ctx, r.cfg.Keys.CountHistory, &counts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Count{}, nil
	}
	return counts, nil
}

// CountHistory returns the stored history, oldest first. The read is
// soft-capped: over MaxCountHistory only the most recent records come
// back and the user is warned. Storage keeps the full list.
func (r *Repository) CountHistory(ctx context.Context) ([]Count, error) {
	counts, err := r.countsRaw(ctx)
	if err != nil {
		return nil, err
	}
	if max := r.cfg.MaxCountHistory; max > 0 && len(counts) > max {
		r.notifier.Notify(ctx,
			fmt.Sprintf("Histórico de contagens muito extenso; exibindo apenas as %d mais recentes.", max),
			SeverityWarning)
		counts = counts[len(counts)-max:]
	}
	return counts, nil
}

// DeleteCount removes one history record by id. A missing id is a no-op
// reported as false, not an error.
func (r *Repository) DeleteCount(ctx context.Context, id string) (bool, error) {
	counts, err := r.countsRaw(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]Count, 0, len(counts))
	for _, c := range counts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(counts) {
		return false, nil
	}
	if err := r.persist(ctx, r.cfg.Keys.CountHistory, kept); err != nil {
		return false, err
	}
	return true, nil
}

// ---- Entry history ----

func (r *Repository) entriesRaw(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	ok, err := r.load(ctx, r.cfg.Keys.EntryHistory, &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Entry{}, nil
	}
	return entries, nil
}

// Entries returns the entry history, oldest first, soft-capped on the
// read side like CountHistory.
func (r *Repository) Entries(ctx context.Context) ([]Entry, error) {
	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return nil, err
	}
	if max := r.cfg.MaxEntryHistory; max > 0 && len(entries) > max {
		r.notifier.Notify(ctx,
			fmt.Sprintf("Histórico de entradas muito extenso; exibindo apenas as %d mais recentes.", max),
			SeverityWarning)
		entries = entries[len(entries)-max:]
	}
	return entries, nil
}

func (r *Repository) checkQuantity(quantity float64) (float64, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0, fmt.Errorf("estoque: quantidade não numérica: %w", ErrInvalidQuantity)
	}
	qty := Round2(quantity)
	if qty <= 0 || (r.cfg.MaxQuantity > 0 && qty > r.cfg.MaxQuantity) {
		return 0, fmt.Errorf("estoque: quantidade %v fora do intervalo: %w", quantity, ErrInvalidQuantity)
	}
	return qty, nil
}

// RegisterEntry appends a delivery to the entry history and credits the
// quantity to the current snapshot's sobrou and posicaoFinal for the
// item. An empty date defaults to today.
func (r *Repository) RegisterEntry(ctx context.Context, itemID string, quantity float64, date string) (Entry, error) {
	qty, err := r.checkQuantity(quantity)
	if err != nil {
		return Entry{}, err
	}
	if strings.TrimSpace(date) == "" {
		date = Today()
	}
	entry := Entry{
		ID:        NewEntryID(),
		ItemID:    itemID,
		Quantity:  qty,
		Date:      date,
		Timestamp: nowISO(),
	}
	if err := r.validate.StructCtx(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("estoque: entrada inválida: %v: %w", err, ErrValidation)
	}

	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return Entry{}, err
	}
	entries = append(entries, entry)
	if err := r.persist(ctx, r.cfg.Keys.EntryHistory, entries); err != nil {
		return Entry{}, err
	}
	if err := r.creditSnapshot(ctx, entry); err != nil {
		return Entry{}, r.cascadeFailed(ctx, "snapshot", err)
	}
	return entry, nil
}

// UpdateEntryQuantity changes an entry's quantity and shifts the current
// snapshot by the difference. A missing id is a no-op reported as false.
func (r *Repository) UpdateEntryQuantity(ctx context.Context, id string, quantity float64) (bool, error) {
	qty, err := r.checkQuantity(quantity)
	if err != nil {
		return false, err
	}

	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfEntry(entries, id)
	if idx < 0 {
		return false, nil
	}

	delta := Round2(qty - entries[idx].Quantity)
	if err := r.adjustSnapshot(ctx, entries[idx].ItemID, delta); err != nil {
		return false, r.cascadeFailed(ctx, "snapshot", err)
	}
	entries[idx].Quantity = qty
	if err := r.persist(ctx, r.cfg.Keys.EntryHistory, entries); err != nil {
		return false, r.cascadeFailed(ctx, "entries", err)
	}
	return true, nil
}

// DeleteEntry removes an entry and debits its quantity from the current
// snapshot, restoring the pre-registration figures. A missing id is a
// no-op reported as false.
func (r *Repository) DeleteEntry(ctx context.Context, id string) (bool, error) {
	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfEntry(entries, id)
	if idx < 0 {
		return false, nil
	}

	if err := r.adjustSnapshot(ctx, entries[idx].ItemID, -entries[idx].Quantity); err != nil {
		return false, r.cascadeFailed(ctx, "snapshot", err)
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := r.persist(ctx, r.cfg.Keys.EntryHistory, entries); err != nil {
		return false, r.cascadeFailed(ctx, "entries", err)
	}
	return true, nil
}

func indexOfEntry(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// creditSnapshot adds a freshly registered delivery to the current
// snapshot. With no snapshot, or no detail for the item, the behavior is
// policy-driven: skip leaves the snapshot alone, create fabricates the
// minimal record the next full count will replace.
func (r *Repository) creditSnapshot(ctx context.Context, entry Entry) error {
	current, err := r.CurrentCount(ctx)
	if err != nil {
		return err
	}

	if current != nil && current.Details != nil {
		if detail, ok := current.Details[entry.ItemID]; ok {
			detail.Leftover = Round2(detail.Leftover + entry.Quantity)
			detail.FinalPosition = Round2(detail.FinalPosition + entry.Quantity)
			current.Details[entry.ItemID] = detail
			return r.SetCurrentCount(ctx, *current)
		}
	}
	if r.cfg.SnapshotPolicy != SnapshotCreate {
		return nil
	}

	if current == nil {
		created := Count{
			ID:          NewCountID(),
			Date:        entry.Date,
			Responsible: SystemResponsible,
			Timestamp:   nowISO(),
			Details: map[string]CountDetail{
				entry.ItemID: {Leftover: entry.Quantity, FinalPosition: entry.Quantity},
			},
		}
		return r.SetCurrentCount(ctx, created)
	}
	if current.Details == nil {
		current.Details = make(map[string]CountDetail, 1)
	}
	current.Details[entry.ItemID] = CountDetail{Leftover: entry.Quantity, FinalPosition: entry.Quantity}
	return r.SetCurrentCount(ctx, *current)
}

// adjustSnapshot shifts sobrou and posicaoFinal of the item's detail by
// delta. An absent snapshot or detail is a no-op: edits and deletions
// never fabricate state.
func (r *Repository) adjustSnapshot(ctx context.Context, itemID string, delta float64) error {
	current, err := r.CurrentCount(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.Details == nil {
		return nil
	}
	detail, ok := current.Details[itemID]
	if !ok {
		return nil
	}
	detail.Leftover = Round2(detail.Leftover + delta)
	detail.FinalPosition = Round2(detail.FinalPosition + delta)
	current.Details[itemID] = detail
	return r.SetCurrentCount(ctx, *current)
}
