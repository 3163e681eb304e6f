package estoque

import (
	"context"
	"encoding/json"
	"fmt"
)

// BackupDocument is the full-state export: the four collections plus
// enough metadata to eyeball a file before restoring it.
type BackupDocument struct {
	Items           []Item         `json:"items"`
	CountHistory    []Count        `json:"countHistory"`
	EntryHistory    []Entry        `json:"entryHistory"`
	CurrentSnapshot *Count         `json:"currentSnapshot"`
	Timestamp       string         `json:"timestamp"`
	Version         string         `json:"version"`
	Metadata        BackupMetadata `json:"metadata"`
}

// BackupMetadata summarises the collection sizes.
type BackupMetadata struct {
	Items   int `json:"insumos"`
	Counts  int `json:"contagens"`
	Entries int `json:"entradas"`
}

// requiredBackupKeys must all be present in a restore document. The
// snapshot may be null, but the key has to be there.
var requiredBackupKeys = []string{"items", "countHistory", "entryHistory", "currentSnapshot"}

// ExportAll assembles the full persisted state into one document. The
// reads bypass the history read caps: a backup always carries everything.
func (r *Repository) ExportAll(ctx context.Context) (BackupDocument, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return BackupDocument{}, err
	}
	counts, err := r.countsRaw(ctx)
	if err != nil {
		return BackupDocument{}, err
	}
	entries, err := r.entriesRaw(ctx)
	if err != nil {
		return BackupDocument{}, err
	}
	current, err := r.CurrentCount(ctx)
	if err != nil {
		return BackupDocument{}, err
	}

	return BackupDocument{
		Items:           items,
		CountHistory:    counts,
		EntryHistory:    entries,
		CurrentSnapshot: current,
		Timestamp:       nowISO(),
		Version:         r.cfg.SchemaVersion,
		Metadata: BackupMetadata{
			Items:   len(items),
			Counts:  len(counts),
			Entries: len(entries),
		},
	}, nil
}

// Restore replaces all four collections with the document's content, no
// merging. The current state is auto-backed up first; a document missing
// any collection key aborts before anything is overwritten.
func (r *Repository) Restore(ctx context.Context, raw []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("estoque: backup ilegível: %v: %w", err, ErrInvalidBackup)
	}
	for _, key := range requiredBackupKeys {
		if _, ok := probe[key]; !ok {
			return fmt.Errorf("estoque: backup sem a chave %q: %w", key, ErrInvalidBackup)
		}
	}
	var doc BackupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("estoque: backup ilegível: %v: %w", err, ErrInvalidBackup)
	}

	if err := r.writeAutoBackup(ctx); err != nil {
		return fmt.Errorf("estoque: pre-restore backup: %w", err)
	}

	keys := r.cfg.Keys
	if err := r.persist(ctx, keys.Items, doc.Items); err != nil {
		return r.cascadeFailed(ctx, "items", err)
	}
	if err := r.persist(ctx, keys.CountHistory, doc.CountHistory); err != nil {
		return r.cascadeFailed(ctx, "count history", err)
	}
	if err := r.persist(ctx, keys.EntryHistory, doc.EntryHistory); err != nil {
		return r.cascadeFailed(ctx, "entries", err)
	}
	if err := r.persist(ctx, keys.CurrentCount, doc.CurrentSnapshot); err != nil {
		return r.cascadeFailed(ctx, "snapshot", err)
	}

	r.notifier.Notify(ctx, "Backup restaurado com sucesso.", SeveritySuccess)
	return nil
}

// writeAutoBackup snapshots the whole state under the auto-backup key.
// Called before migrations and before restores.
func (r *Repository) writeAutoBackup(ctx context.Context) error {
	doc, err := r.ExportAll(ctx)
	if err != nil {
		return err
	}
	return r.persist(ctx, r.cfg.Keys.AutoBackup, doc)
}
