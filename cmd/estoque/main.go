// Command estoque operates the pizzeria inventory from the terminal:
// catalog management, stock entries, count history, integrity checks and
// backup/report exports. All semantics live in internal/estoque; this
// binary is presentation only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/lagiovanas/estoque/internal/app"
	"github.com/lagiovanas/estoque/internal/estoque"
	"github.com/lagiovanas/estoque/internal/export"
	"github.com/lagiovanas/estoque/internal/platform/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	repo := estoque.NewRepository(store, cfg.Domain(), estoque.LogNotifier{Logger: logger}, logger)
	boot := estoque.NewBootstrap(repo, logger)
	if err := boot.Run(ctx); err != nil {
		logger.Error("bootstrap", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if err := dispatch(ctx, repo, boot, args); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *app.Config) (storage.Store, error) {
	if cfg.StorageDriver == "redis" {
		return storage.NewRedis(ctx, cfg.RedisAddr, cfg.MaxValueBytes)
	}
	return storage.NewSQLite(cfg.SQLitePath, cfg.MaxValueBytes)
}

func dispatch(ctx context.Context, repo *estoque.Repository, boot *estoque.Bootstrap, args []string) error {
	switch args[0] {
	case "insumos":
		return runInsumos(ctx, repo, args[1:])
	case "estoque":
		return runEstoque(ctx, repo)
	case "contagens":
		return runContagens(ctx, repo, args[1:])
	case "entradas":
		return runEntradas(ctx, repo, args[1:])
	case "integridade":
		return runIntegrity(ctx, boot)
	case "export":
		return runExport(ctx, repo, args[1:])
	case "restore":
		return runRestore(ctx, repo, args[1:])
	case "csv":
		return runCSV(ctx, repo, args[1:])
	case "xlsx":
		return runXLSX(ctx, repo, args[1:])
	default:
		usage()
		return fmt.Errorf("comando desconhecido %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `uso: estoque <comando>

comandos:
  insumos list                          lista o catálogo
  insumos add -nome N -unidade U        cadastra um insumo
  insumos edit -id I -nome N -unidade U edita um insumo
  insumos rm -id I                      exclui o insumo e todo o seu histórico
  estoque                               posição atual do estoque
  contagens list                        histórico de contagens
  contagens add -responsavel R [-data D] -linha ID:ESTOQUE:DESCEU:LINHA ...
  contagens rm -id I                    exclui uma contagem do histórico
  entradas list                         histórico de entradas
  entradas add -insumo I -quantidade Q [-data D]
  entradas set -id I -quantidade Q      corrige a quantidade de uma entrada
  entradas rm -id I                     exclui uma entrada
  integridade                           verificação de integridade dos dados
  export -o arquivo.json                exporta backup completo
  restore -i arquivo.json               restaura um backup
  csv -o arquivo.csv                    relatório do estoque atual em CSV
  xlsx -o arquivo.xlsx                  relatório do estoque atual em XLSX`)
}

func runInsumos(ctx context.Context, repo *estoque.Repository, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("insumos: subcomando obrigatório (list|add|edit|rm)")
	}
	switch args[0] {
	case "list":
		items, err := repo.Items(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOME\tUNIDADE")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Name, item.Unit)
		}
		return w.Flush()
	case "add":
		fs := flag.NewFlagSet("insumos add", flag.ExitOnError)
		nome := fs.String("nome", "", "nome do insumo")
		unidade := fs.String("unidade", "", "unidade de medida")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		item, err := repo.AddItem(ctx, *nome, *unidade)
		if err != nil {
			return err
		}
		fmt.Println("cadastrado:", item.ID)
		return nil
	case "edit":
		fs := flag.NewFlagSet("insumos edit", flag.ExitOnError)
		id := fs.String("id", "", "id do insumo")
		nome := fs.String("nome", "", "novo nome")
		unidade := fs.String("unidade", "", "nova unidade")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return repo.UpdateItem(ctx, *id, *nome, *unidade)
	case "rm":
		fs := flag.NewFlagSet("insumos rm", flag.ExitOnError)
		id := fs.String("id", "", "id do insumo")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return repo.DeleteItemData(ctx, *id)
	default:
		return fmt.Errorf("insumos: subcomando desconhecido %q", args[0])
	}
}

func runEstoque(ctx context.Context, repo *estoque.Repository) error {
	items, err := repo.Items(ctx)
	if err != nil {
		return err
	}
	current, err := repo.CurrentCount(ctx)
	if err != nil {
		return err
	}
	rows := export.BuildRows(items, current, repo.Config())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSUMO\tUNIDADE\tSOBROU\tPOSIÇÃO FINAL\tALERTA")
	for _, row := range rows {
		alert := ""
		if row.LowStock {
			alert = "estoque baixo"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\n", row.Name, row.Unit, row.Leftover, row.FinalPosition, alert)
	}
	return w.Flush()
}

func runContagens(ctx context.Context, repo *estoque.Repository, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("contagens: subcomando obrigatório (list|add|rm)")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("contagens add", flag.ExitOnError)
		responsavel := fs.String("responsavel", "", "responsável pela contagem")
		data := fs.String("data", estoque.Today(), "data da contagem (YYYY-MM-DD)")
		var linhas lineFlags
		fs.Var(&linhas, "linha", "linha contada no formato ID:ESTOQUE:DESCEU:LINHA (repetível)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		count, err := repo.RecordCount(ctx, *data, *responsavel, linhas.lines)
		if err != nil {
			return err
		}
		fmt.Println("registrada:", count.ID)
		return nil
	case "list":
		counts, err := repo.CountHistory(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATA\tRESPONSÁVEL\tITENS")
		for _, count := range counts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", count.ID, count.Date, count.Responsible, len(count.Details))
		}
		return w.Flush()
	case "rm":
		fs := flag.NewFlagSet("contagens rm", flag.ExitOnError)
		id := fs.String("id", "", "id da contagem")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		removed, err := repo.DeleteCount(ctx, *id)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("contagem não encontrada")
		}
		return nil
	default:
		return fmt.Errorf("contagens: subcomando desconhecido %q", args[0])
	}
}

func runEntradas(ctx context.Context, repo *estoque.Repository, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("entradas: subcomando obrigatório (list|add|set|rm)")
	}
	switch args[0] {
	case "list":
		entries, err := repo.Entries(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tINSUMO\tQUANTIDADE\tDATA")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", entry.ID, entry.ItemID, entry.Quantity, entry.Date)
		}
		return w.Flush()
	case "add":
		fs := flag.NewFlagSet("entradas add", flag.ExitOnError)
		insumo := fs.String("insumo", "", "id do insumo")
		quantidade := fs.Float64("quantidade", 0, "quantidade recebida")
		data := fs.String("data", "", "data (YYYY-MM-DD, padrão hoje)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		entry, err := repo.RegisterEntry(ctx, *insumo, *quantidade, *data)
		if err != nil {
			return err
		}
		fmt.Println("registrada:", entry.ID)
		return nil
	case "set":
		fs := flag.NewFlagSet("entradas set", flag.ExitOnError)
		id := fs.String("id", "", "id da entrada")
		quantidade := fs.Float64("quantidade", 0, "nova quantidade")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		updated, err := repo.UpdateEntryQuantity(ctx, *id, *quantidade)
		if err != nil {
			return err
		}
		if !updated {
			fmt.Println("entrada não encontrada")
		}
		return nil
	case "rm":
		fs := flag.NewFlagSet("entradas rm", flag.ExitOnError)
		id := fs.String("id", "", "id da entrada")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		removed, err := repo.DeleteEntry(ctx, *id)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("entrada não encontrada")
		}
		return nil
	default:
		return fmt.Errorf("entradas: subcomando desconhecido %q", args[0])
	}
}

func runIntegrity(ctx context.Context, boot *estoque.Bootstrap) error {
	problems, err := boot.IntegrityCheck(ctx)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Println("nenhum problema encontrado")
		return nil
	}
	for _, p := range problems {
		fmt.Println("-", p)
	}
	return nil
}

func runExport(ctx context.Context, repo *estoque.Repository, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "backup.json", "arquivo de destino")
	if err := fs.Parse(args); err != nil {
		return err
	}
	doc, err := repo.ExportAll(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeJSON(f, doc)
}

func runRestore(ctx context.Context, repo *estoque.Repository, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	in := fs.String("i", "", "arquivo de backup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	return repo.Restore(ctx, raw)
}

func runCSV(ctx context.Context, repo *estoque.Repository, args []string) error {
	fs := flag.NewFlagSet("csv", flag.ExitOnError)
	out := fs.String("o", "estoque.csv", "arquivo de destino")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := reportRows(ctx, repo)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteStockCSV(f, rows)
}

func runXLSX(ctx context.Context, repo *estoque.Repository, args []string) error {
	fs := flag.NewFlagSet("xlsx", flag.ExitOnError)
	out := fs.String("o", "estoque.xlsx", "arquivo de destino")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := reportRows(ctx, repo)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteStockXLSX(f, rows)
}

// lineFlags parses repeated -linha flags into count lines.
type lineFlags struct {
	lines map[string]estoque.CountLine
}

func (l *lineFlags) String() string { return fmt.Sprintf("%d linhas", len(l.lines)) }

func (l *lineFlags) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return fmt.Errorf("linha %q: esperado ID:ESTOQUE:DESCEU:LINHA", value)
	}
	nums := make([]float64, 3)
	for i, raw := range parts[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("linha %q: valor %q não numérico", value, raw)
		}
		nums[i] = v
	}
	if l.lines == nil {
		l.lines = make(map[string]estoque.CountLine)
	}
	l.lines[parts[0]] = estoque.CountLine{Stock: nums[0], Dispatched: nums[1], LineQty: nums[2]}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportRows(ctx context.Context, repo *estoque.Repository) ([]export.Row, error) {
	items, err := repo.Items(ctx)
	if err != nil {
		return nil, err
	}
	current, err := repo.CurrentCount(ctx)
	if err != nil {
		return nil, err
	}
	return export.BuildRows(items, current, repo.Config()), nil
}
