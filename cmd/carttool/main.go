package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/distroflow/cartcore/internal/bundles"
	"github.com/distroflow/cartcore/internal/cartstore"
	"github.com/distroflow/cartcore/internal/catalog"
	"github.com/distroflow/cartcore/internal/persist"
	"github.com/distroflow/cartcore/internal/projection"
	"github.com/distroflow/cartcore/pkg/config"
	"github.com/distroflow/cartcore/pkg/logger"
	"github.com/distroflow/cartcore/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "carttool"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "carttool",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.Catalog.ProductsFile == "" || cfg.Catalog.RulesFile == "" {
		logg.Error(ctx, "CARTCORE_CATALOG_PRODUCTS_FILE and CARTCORE_CATALOG_RULES_FILE are required", nil)
		os.Exit(1)
	}

	products, err := catalog.LoadProductsFile(cfg.Catalog.ProductsFile)
	if err != nil {
		logg.Error(ctx, "failed to load product catalog", err)
		os.Exit(1)
	}

	rules, err := bundles.LoadRulesFile(cfg.Catalog.RulesFile)
	if err != nil {
		logg.Error(ctx, "failed to load bundle rules", err)
		os.Exit(1)
	}

	adapter, closeAdapter, err := buildAdapter(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap snapshot storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeAdapter(); err != nil {
			logg.Error(ctx, "error closing snapshot storage", err)
		}
	}()

	store, err := cartstore.New(products, adapter, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}

	proj, err := projection.New(store, products, projection.RuleSourceFunc(func() []bundles.Rule {
		return rules
	}))
	if err != nil {
		logg.Error(ctx, "failed to create cart projection", err)
		os.Exit(1)
	}
	defer proj.Close()

	if err := store.Restore(ctx); err != nil {
		logg.Error(ctx, "failed to restore persisted cart", err)
		os.Exit(1)
	}

	ctx = logg.WithSessionID(ctx, store.SessionID().String())
	logg.Info(ctx, fmt.Sprintf("cart ready with %d products and %d rules", products.Len(), len(rules)))

	runLoop(ctx, store, proj, rules, products, logg)
}

func buildAdapter(ctx context.Context, cfg *config.Config, logg *logger.Logger) (persist.Adapter, func() error, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return persist.NewMemory(logg), func() error { return nil }, nil
	}
	store, err := persist.NewStore(ctx, cfg.Storage, logg)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func runLoop(ctx context.Context, store *cartstore.Store, proj *projection.Projection, rules []bundles.Rule, products *catalog.Snapshot, logg *logger.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: add <id> | qty <id> <n|empty> | commit <id> | case <id> <n> | rm <id> | clear | show | draft | quit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "add":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: add <product-id>")
				break
			}
			err = store.AddLine(ctx, fields[1])
		case "qty":
			if len(fields) != 3 {
				err = fmt.Errorf("usage: qty <product-id> <n|empty>")
				break
			}
			input := types.Editing()
			if fields[2] != "empty" {
				var value int
				if value, err = strconv.Atoi(fields[2]); err != nil {
					err = fmt.Errorf("quantity must be an integer or 'empty'")
					break
				}
				input = types.Committed(value)
			}
			err = store.SetQuantity(ctx, fields[1], input)
		case "commit":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: commit <product-id>")
				break
			}
			err = store.CommitQuantity(ctx, fields[1])
		case "case":
			if len(fields) != 3 {
				err = fmt.Errorf("usage: case <product-id> <count>")
				break
			}
			var count int
			if count, err = strconv.Atoi(fields[2]); err != nil {
				err = fmt.Errorf("case count must be an integer")
				break
			}
			err = store.SetCaseCount(ctx, fields[1], count)
		case "rm":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: rm <product-id>")
				break
			}
			err = store.RemoveLine(ctx, fields[1])
		case "clear":
			err = store.Clear(ctx)
		case "show":
			printView(proj.View())
			continue
		case "draft":
			printDraft(store, products, rules)
			continue
		case "quit", "exit":
			return
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}

		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printView(proj.View())
	}
}

func printView(view projection.View) {
	if len(view.Lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range view.Lines {
		subtotal := "-"
		switch {
		case line.PriceUnavailable:
			subtotal = "price unavailable"
		case line.Subtotal != nil:
			subtotal = line.Subtotal.StringFixed(2)
		}
		badge := ""
		if line.SchemeEligible {
			badge = " [scheme]"
		}
		fmt.Printf("  %-20s qty=%-8s cases=%-3d subtotal=%s%s\n", line.Name, line.Quantity, line.CaseCount, subtotal, badge)
	}
	fmt.Printf("total: %s\n", view.GrandTotal.StringFixed(2))
	if view.HasUnavailablePricing {
		fmt.Println("warning: some lines have unavailable pricing and are excluded from the total")
	}
	for productID, qty := range view.Entitlement {
		fmt.Printf("free goods: %s x%d\n", productID, qty)
	}
}

func printDraft(store *cartstore.Store, products *catalog.Snapshot, rules []bundles.Rule) {
	draft, err := projection.BuildOrderDraft(store, products, rules)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("order draft: %d lines, total %s\n", len(draft.Lines), draft.GrandTotal.StringFixed(2))
	for _, line := range draft.Lines {
		fmt.Printf("  %s x%d\n", line.ProductID, line.Quantity)
	}
	for productID, qty := range draft.Entitlement {
		fmt.Printf("  + free %s x%d\n", productID, qty)
	}
}
