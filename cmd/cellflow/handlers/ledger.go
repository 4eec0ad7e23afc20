package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/imamik/cellflow/internal/ledger"
)

// openLedger loads the config and opens the ledger it names.
func openLedger(configPath string) (*ledger.Ledger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.State.LedgerFile)
}

// LedgerList prints the completed sales orders.
func LedgerList(w io.Writer, configPath string, jsonOutput bool) error {
	l, err := openLedger(configPath)
	if err != nil {
		return err
	}

	orders := l.List()
	if jsonOutput {
		b, err := json.MarshalIndent(orders, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	if len(orders) == 0 {
		fmt.Fprintf(w, "No sales orders in %s\n", l.Path())
		return nil
	}
	for _, id := range orders {
		fmt.Fprintln(w, id)
	}
	return nil
}

// LedgerRemove drops one sales order from the ledger so the next scan
// processes it again.
func LedgerRemove(w io.Writer, configPath, order string) error {
	l, err := openLedger(configPath)
	if err != nil {
		return err
	}

	removed, err := l.Remove(order)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("sales order %s is not in %s", order, l.Path())
	}

	fmt.Fprintf(w, "Removed %s from %s\n", order, l.Path())
	return nil
}
