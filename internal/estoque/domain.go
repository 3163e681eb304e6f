// Package estoque implements the inventory-counting engine of the
// pizzeria: the supply catalog, physical counts with their derived
// figures, incremental stock entries and the consistency rules that tie
// the four persisted collections together.
package estoque

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item is one catalog entry ("insumo"). The id never changes after
// creation; the name is unique among all items under Brazilian
// Portuguese collation.
type Item struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"nome" validate:"required"`
	Unit      string `json:"unidade" validate:"required"`
	CreatedAt string `json:"dataCriacao,omitempty"`
}

// CountDetail carries the counted and derived figures for one item:
// sobrou = estoque - desceu, posicaoFinal = sobrou + linhaMontagem.
// Entry mutations move sobrou and posicaoFinal by the same delta so the
// identity keeps holding with linhaMontagem fixed.
type CountDetail struct {
	Name          string  `json:"nome,omitempty"`
	Stock         float64 `json:"estoque"`
	Dispatched    float64 `json:"desceu"`
	LineQty       float64 `json:"linhaMontagem"`
	Leftover      float64 `json:"sobrou"`
	FinalPosition float64 `json:"posicaoFinal"`
}

// Count is a full physical count. The same shape serves as the mutable
// current snapshot (one value, replaced on every save) and as an
// immutable history record.
type Count struct {
	ID          string                 `json:"id" validate:"required"`
	Date        string                 `json:"data" validate:"required"`
	Responsible string                 `json:"responsavel" validate:"required"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Details     map[string]CountDetail `json:"detalhesContagem"`
}

// Entry is an incremental delivery ("entrada") recorded between counts.
type Entry struct {
	ID        string  `json:"id" validate:"required"`
	ItemID    string  `json:"insumoId" validate:"required"`
	Quantity  float64 `json:"quantidade" validate:"gt=0"`
	Date      string  `json:"data" validate:"required"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// CountLine is the raw user input for one item in a count, before
// normalization and derivation.
type CountLine struct {
	Stock      float64
	Dispatched float64
	LineQty    float64
}

var (
	// ErrValidation indicates input was rejected before any write.
	ErrValidation = errors.New("estoque: validation failed")
	// ErrDuplicateName indicates another item already uses the name.
	ErrDuplicateName = errors.New("estoque: duplicate item name")
	// ErrInvalidQuantity indicates a quantity outside (0, max].
	ErrInvalidQuantity = errors.New("estoque: invalid quantity")
	// ErrItemNotFound indicates the catalog has no such item.
	ErrItemNotFound = errors.New("estoque: item not found")
	// ErrCascadeIncomplete indicates a multi-collection operation failed
	// after some writes succeeded. Nothing is rolled back; the integrity
	// check is the remediation path.
	ErrCascadeIncomplete = errors.New("estoque: cascade incomplete")
	// ErrInvalidBackup indicates a restore document is missing required
	// collections.
	ErrInvalidBackup = errors.New("estoque: invalid backup document")
)

// SnapshotPolicy decides what a freshly registered entry does when the
// current snapshot has no detail for its item.
type SnapshotPolicy string

const (
	// SnapshotSkip leaves the snapshot untouched.
	SnapshotSkip SnapshotPolicy = "skip"
	// SnapshotCreate fabricates a minimal snapshot or detail carrying
	// just the delivered quantity.
	SnapshotCreate SnapshotPolicy = "create"
)

// SystemResponsible names the synthetic author of auto-created snapshots.
const SystemResponsible = "Sistema"

// NewItemID returns a fresh catalog id.
func NewItemID() string { return "insumo-" + uuid.NewString() }

// NewCountID returns a fresh count id.
func NewCountID() string { return "contagem-" + uuid.NewString() }

// NewEntryID returns a fresh entry id.
func NewEntryID() string { return "entrada-" + uuid.NewString() }

// Today returns the current date in the stored YYYY-MM-DD format.
func Today() string { return time.Now().Format("2006-01-02") }

func nowISO() string { return time.Now().UTC().Format(time.RFC3339) }
