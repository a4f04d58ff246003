package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/backbot/internal/domain"
)

// Console implementa ports.Reporter. Imprime el resultado de un run en
// modo compacto (una línea de resumen) o con tabla de trades.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Report imprime el resultado en el modo configurado.
func (c *Console) Report(_ context.Context, result domain.BacktestResult) error {
	c.printSummary(result)
	if c.table && len(result.Trades) > 0 {
		c.printTrades(result.Trades)
	}
	return nil
}

// printSummary imprime el resumen del run en pocas líneas.
func (c *Console) printSummary(r domain.BacktestResult) {
	status := "completed"
	if !r.Completed {
		status = "ABORTED"
	}

	fmt.Fprintf(c.out, "\nrun %s [%s] %s → %s step %s\n",
		r.RunID, status,
		r.StartTime.Format(time.RFC3339), r.EndTime.Format(time.RFC3339),
		r.Step)
	fmt.Fprintf(c.out, "  equity   $%.2f → $%.2f (%+.2f%%)\n",
		r.InitialCash, r.FinalValue, r.TotalReturnPct())
	fmt.Fprintf(c.out, "  trades   %d | fees $%.2f | interest $%.2f | max drawdown %.2f%%\n",
		len(r.Trades), r.TotalFeesPaid, r.TotalInterestEarned, r.MaxDrawdownPct())
}

// printTrades imprime la tabla de fills del run.
func (c *Console) printTrades(trades []domain.Fill) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Venue", "Instrument", "Side", "Liq", "Price", "Size", "Fee")

	for i, f := range trades {
		instrument := f.TokenID
		if f.Outcome != "" {
			instrument = fmt.Sprintf("%s:%s", f.TokenID, f.Outcome)
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			f.Timestamp.Format("2006-01-02 15:04"),
			string(f.Venue),
			compactName(instrument, 28),
			string(f.Side),
			string(f.Liquidity),
			fmt.Sprintf("%.4f", f.Price),
			fmt.Sprintf("%.2f", f.Size),
			fmt.Sprintf("$%.2f", f.Fee),
		)
	}

	table.Render()
}

// compactName trunca un nombre largo para la tabla.
func compactName(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
