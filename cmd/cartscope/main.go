package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"cartscope/internal"
	"cartscope/internal/bridge"
	"cartscope/internal/browser"
	"cartscope/internal/config"
	"cartscope/internal/export"
	"cartscope/internal/extract"
	"cartscope/internal/inventory"
	"cartscope/internal/page"
	"cartscope/internal/removal"
	"cartscope/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "path to an html snapshot")
		pageURL := fs.String("url", cfg.PageURL, "live page url")
		asJSON := fs.Bool("json", false, "print the full result as json")
		_ = fs.Parse(os.Args[2:])

		snap, cleanup, err := loadSnapshot(cfg, *input, *pageURL)
		must(err)
		defer cleanup()

		result := extract.New(cfg).Run(snap)
		runID, err := db.InsertRun(traceID(), snap.URL, result)
		must(err)

		if *asJSON {
			encoded, err := json.MarshalIndent(result, "", "  ")
			must(err)
			fmt.Println(string(encoded))
		} else {
			fmt.Printf("run %d: %d identifiers, %d names, %d line items\n", runID, len(result.Identifiers), len(result.Names), len(result.Items))
			for _, id := range result.Identifiers {
				fmt.Printf("  %s\n", id)
			}
		}

	case "remove":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "path to an html snapshot")
		ids := fs.String("ids", "", "comma-separated identifiers")
		reload := fs.Bool("reload", false, "request a reload after the list")
		out := fs.String("out", "", "write the mutated document here")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*ids) == "" {
			must(fmt.Errorf("--input and --ids are required"))
		}

		snap, err := page.LoadFile(*input)
		must(err)

		req := internal.RemovalRequest{Reload: *reload}
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.Items = append(req.Items, internal.RemovalItem{Identifier: id})
			}
		}

		act := &removal.TreeActuator{SettleDelay: time.Duration(cfg.RemovalSettleMs) * time.Millisecond}
		records := removal.NewCoordinator(act).Process(snap.Doc, req)
		for _, rec := range records {
			must(db.InsertRemoval(nil, rec))
			fmt.Printf("%s: %s\n", rec.Identifier, rec.Outcome)
		}

		if strings.TrimSpace(*out) != "" {
			f, err := os.Create(*out)
			must(err)
			must(html.Render(f, snap.Doc.Get(0)))
			must(f.Close())
			fmt.Printf("mutated document written to %s\n", *out)
		}

	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pageURL := fs.String("url", cfg.PageURL, "live page url")
		addr := fs.String("addr", cfg.BridgeAddr, "bridge listen address")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("PAGE_URL", *pageURL))
		must(serve(cfg, db, *pageURL, *addr))

	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("run", 0, "run id (default: latest)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		id := *runID
		if id == 0 {
			latest, err := db.LatestRunID()
			must(err)
			if latest == nil {
				must(fmt.Errorf("no runs recorded yet"))
			}
			id = *latest
		}

		run, err := db.GetRun(id)
		must(err)
		if run == nil {
			must(fmt.Errorf("no run with id %d", id))
		}
		rows, err := db.GetExportRows(id)
		must(err)
		must(export.RunToXLSX(*run, rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)

	case "login":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		_ = fs.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			must(fmt.Errorf("--email and --password are required"))
		}

		client := inventory.NewClient(cfg)
		token, err := client.Login(context.Background(), *email, *password)
		must(err)
		must(db.SetMetadata("lager_token", token))
		fmt.Println("logged in, token stored")

	case "inventory:check":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("run", 0, "run id (default: latest)")
		_ = fs.Parse(os.Args[2:])

		id := *runID
		if id == 0 {
			latest, err := db.LatestRunID()
			must(err)
			if latest == nil {
				must(fmt.Errorf("no runs recorded yet"))
			}
			id = *latest
		}
		run, err := db.GetRun(id)
		must(err)
		if run == nil {
			must(fmt.Errorf("no run with id %d", id))
		}

		client := inventoryClient(cfg, db)
		result, err := client.BulkCheck(context.Background(), run.Identifiers, run.Names)
		must(err)
		printBulkCheck(result)

	case "inventory:reserve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ids := fs.String("ids", "", "comma-separated identifiers")
		qty := fs.Float64("qty", 0, "quantity per item (0 = unspecified)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*ids) == "" {
			must(fmt.Errorf("--ids is required"))
		}

		var items []internal.ReservationItem
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id == "" {
				continue
			}
			item := internal.ReservationItem{Artikelnummer: id}
			if *qty > 0 {
				q := *qty
				item.Menge = &q
			}
			items = append(items, item)
		}

		client := inventoryClient(cfg, db)
		result, err := client.Reserve(context.Background(), items)
		must(err)
		fmt.Printf("reserved %d of %d\n", len(result.Reserved), len(items))
		for _, item := range result.Reserved {
			if item.Menge != nil {
				fmt.Printf("  %s x%g\n", item.Artikelnummer, *item.Menge)
			} else {
				fmt.Printf("  %s\n", item.Artikelnummer)
			}
		}

	default:
		usage()
		os.Exit(1)
	}
}

func serve(cfg config.Config, db *storage.DB, pageURL, addr string) error {
	session, err := browser.NewSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Navigate(pageURL); err != nil {
		return err
	}

	orchestrator := extract.New(cfg)
	coordinator := removal.NewCoordinator(browser.NewLiveActuator(session))
	client := inventoryClient(cfg, db)

	runExtraction := func() (internal.ExtractResult, error) {
		snap, err := session.Capture()
		if err != nil {
			return internal.ExtractResult{}, err
		}
		result := orchestrator.Run(snap)
		if _, err := db.InsertRun(traceID(), snap.URL, result); err != nil {
			fmt.Printf("serve: run not recorded: %v\n", err)
		}
		if cfg.AutoBulkCheck && !result.Empty() {
			checked, err := client.BulkCheck(context.Background(), result.Identifiers, result.Names)
			if err != nil {
				fmt.Printf("serve: bulk check failed: %v\n", err)
			} else {
				printBulkCheck(checked)
			}
		}
		return result, nil
	}

	// each removal can shift the positions later items are addressed by, so
	// the page is re-captured before every identifier
	fresh := func() (*goquery.Document, error) {
		snap, err := session.Capture()
		if err != nil {
			return nil, err
		}
		return snap.Doc, nil
	}
	runRemoval := func(req internal.RemovalRequest) error {
		for _, rec := range coordinator.ProcessFresh(fresh, req) {
			if err := db.InsertRemoval(nil, rec); err != nil {
				fmt.Printf("serve: removal not recorded: %v\n", err)
			}
			fmt.Printf("removal %s: %s\n", rec.Identifier, rec.Outcome)
		}
		return nil
	}

	handler := bridge.NewHandler(runExtraction, runRemoval)

	// one extraction on attach, pushed outward when anything was found
	initial, err := runExtraction()
	if err != nil {
		fmt.Printf("serve: initial extraction failed: %v\n", err)
	} else {
		handler.PushExtracted(initial)
	}

	mux := http.NewServeMux()
	mux.Handle("/bridge", handler)
	fmt.Printf("bridge listening on %s (page %s)\n", addr, pageURL)
	return http.ListenAndServe(addr, mux)
}

func inventoryClient(cfg config.Config, db *storage.DB) *inventory.Client {
	client := inventory.NewClient(cfg)
	if cfg.LagerAPIToken == "" {
		if stored, err := db.GetMetadata("lager_token"); err == nil && stored != nil {
			client.SetToken(*stored)
		}
	}
	return client
}

func loadSnapshot(cfg config.Config, input, pageURL string) (*page.Snapshot, func(), error) {
	if strings.TrimSpace(input) != "" {
		snap, err := page.LoadFile(input)
		return snap, func() {}, err
	}
	if strings.TrimSpace(pageURL) == "" {
		return nil, nil, fmt.Errorf("either --input or --url is required")
	}

	session, err := browser.NewSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := session.Navigate(pageURL); err != nil {
		session.Close()
		return nil, nil, err
	}
	snap, err := session.Capture()
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	return snap, session.Close, nil
}

func printBulkCheck(result internal.BulkCheckResult) {
	fmt.Printf("hits: %d, not found: %d\n", len(result.Hits), len(result.NotFound))
	for _, hit := range result.Hits {
		name := "(unnamed)"
		if hit.Name != nil {
			name = *hit.Name
		}
		id := "-"
		if hit.Artikelnummer != nil {
			id = *hit.Artikelnummer
		}
		fmt.Printf("  %s [%s] source=%s", name, id, hit.Quelle)
		if hit.Menge != nil {
			fmt.Printf(" qty=%g", *hit.Menge)
		}
		if hit.Position != nil {
			fmt.Printf(" pos=%g/%g/%g", hit.Position.X, hit.Position.Y, hit.Position.Z)
		}
		fmt.Println()
	}
	for _, missing := range result.NotFound {
		fmt.Printf("  not found: %s\n", missing)
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func usage() {
	fmt.Println(`cartscope commands:
  extract --input page.html | --url https://...  [--json]
  remove --input page.html --ids SKU1,SKU2 [--reload] [--out mutated.html]
  serve [--url https://...] [--addr 127.0.0.1:8765]
  export:xlsx [--run N] --out report.xlsx
  login --email ... --password ...
  inventory:check [--run N]
  inventory:reserve --ids SKU1,SKU2 [--qty N]`)
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
