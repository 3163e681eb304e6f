package estoque

import (
	"context"
	"fmt"
	"log/slog"
)

// Bootstrap runs the startup sequence before anything else touches the
// repository: the version-gated migration (auto-backup plus history
// de-duplication) and the default catalog seeding.
type Bootstrap struct {
	repo   *Repository
	logger *slog.Logger
}

// NewBootstrap builds the startup runner.
func NewBootstrap(repo *Repository, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{repo: repo, logger: logger}
}

// Run executes migration then seeding. Safe to call on every startup.
func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.migrate(ctx); err != nil {
		return err
	}
	return b.seed(ctx)
}

// migrate compares the stored schema version with the configured one.
// On mismatch (or first run) it snapshots the whole state to the
// auto-backup key, de-duplicates the history collections and writes the
// new version. There is no per-version transform chain.
func (b *Bootstrap) migrate(ctx context.Context) error {
	keys := b.repo.cfg.Keys

	var stored string
	ok, err := b.repo.load(ctx, keys.Version, &stored)
	if err != nil {
		return err
	}
	if ok && stored == b.repo.cfg.SchemaVersion {
		return nil
	}

	b.logger.InfoContext(ctx, "schema version changed, migrating",
		"from", stored, "to", b.repo.cfg.SchemaVersion)

	if err := b.repo.writeAutoBackup(ctx); err != nil {
		return fmt.Errorf("estoque: pre-migration backup: %w", err)
	}
	if err := b.dedup(ctx); err != nil {
		return err
	}
	return b.repo.persist(ctx, keys.Version, b.repo.cfg.SchemaVersion)
}

// dedup drops history records whose id repeats, keeping the first
// occurrence in list order.
func (b *Bootstrap) dedup(ctx context.Context) error {
	counts, err := b.repo.countsRaw(ctx)
	if err != nil {
		return err
	}
	if deduped, removed := dedupByID(counts, func(c Count) string { return c.ID }); removed > 0 {
		b.logger.InfoContext(ctx, "removed duplicated count records", "count", removed)
		if err := b.repo.persist(ctx, b.repo.cfg.Keys.CountHistory, deduped); err != nil {
			return err
		}
	}

	entries, err := b.repo.entriesRaw(ctx)
	if err != nil {
		return err
	}
	if deduped, removed := dedupByID(entries, func(e Entry) string { return e.ID }); removed > 0 {
		b.logger.InfoContext(ctx, "removed duplicated entry records", "count", removed)
		if err := b.repo.persist(ctx, b.repo.cfg.Keys.EntryHistory, deduped); err != nil {
			return err
		}
	}
	return nil
}

func dedupByID[T any](list []T, id func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(list))
	kept := make([]T, 0, len(list))
	for _, v := range list {
		key := id(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, v)
	}
	return kept, len(list) - len(kept)
}

// seed installs the default catalog when no items exist yet. Idempotent:
// a non-empty catalog is left untouched.
func (b *Bootstrap) seed(ctx context.Context) error {
	items, err := b.repo.Items(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}
	b.logger.InfoContext(ctx, "seeding default catalog", "items", len(defaultCatalog))
	return b.repo.SaveItems(ctx, defaultCatalog)
}

// IntegrityCheck scans the stored collections for structurally broken
// records and returns human-readable problem descriptions. It only
// reports; nothing is repaired.
func (b *Bootstrap) IntegrityCheck(ctx context.Context) ([]string, error) {
	var problems []string

	items, err := b.repo.Items(ctx)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := b.repo.validate.StructCtx(ctx, item); err != nil {
			problems = append(problems, fmt.Sprintf("insumo #%d (%s): campos obrigatórios ausentes", i+1, item.ID))
		}
	}

	counts, err := b.repo.countsRaw(ctx)
	if err != nil {
		return nil, err
	}
	for i, count := range counts {
		if err := b.repo.validate.StructCtx(ctx, count); err != nil {
			problems = append(problems, fmt.Sprintf("contagem #%d (%s): campos obrigatórios ausentes", i+1, count.ID))
		}
	}

	entries, err := b.repo.entriesRaw(ctx)
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		if err := b.repo.validate.StructCtx(ctx, entry); err != nil {
			problems = append(problems, fmt.Sprintf("entrada #%d (%s): campos obrigatórios ausentes ou quantidade inválida", i+1, entry.ID))
		}
	}
	return problems, nil
}
