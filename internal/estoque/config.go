package estoque

// StorageKeys maps the four collections plus the version and auto-backup
// metadata to their store keys.
type StorageKeys struct {
	Items        string
	CurrentCount string
	CountHistory string
	EntryHistory string
	Version      string
	AutoBackup   string
}

// DefaultKeys returns the key layout the data set has always used.
func DefaultKeys() StorageKeys {
	return StorageKeys{
		Items:        "items",
		CurrentCount: "ultimaContagem",
		CountHistory: "historicoContagens",
		EntryHistory: "historicoEntradas",
		Version:      "versao_sistema",
		AutoBackup:   "backup_auto",
	}
}

// Config carries the thresholds, limits and policies of the engine. It is
// immutable after construction; every component receives it explicitly
// instead of reading ambient globals.
type Config struct {
	// CriticalThreshold and LowThreshold tier the low-stock
	// classification. Low must be >= Critical for the tiers to mean
	// anything; with the production values (1 and 20) the critical
	// comparison is subsumed by the low one but both are kept.
	CriticalThreshold float64
	LowThreshold      float64

	// MaxQuantity clamps every user-entered quantity.
	MaxQuantity float64

	// MaxItems is the soft cap on the catalog size: saves over the cap
	// truncate and warn.
	MaxItems int

	// MaxCountHistory and MaxEntryHistory cap history reads. The caps
	// are read-side only: storage keeps the full lists and mutations
	// always operate on them.
	MaxCountHistory int
	MaxEntryHistory int

	// SchemaVersion gates the startup migration.
	SchemaVersion string

	// SnapshotPolicy picks the entry-with-no-snapshot behavior.
	SnapshotPolicy SnapshotPolicy

	Keys StorageKeys
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		CriticalThreshold: 1,
		LowThreshold:      20,
		MaxQuantity:       10000,
		MaxItems:          300,
		MaxCountHistory:   100,
		MaxEntryHistory:   500,
		SchemaVersion:     "2.0",
		SnapshotPolicy:    SnapshotSkip,
		Keys:              DefaultKeys(),
	}
}
