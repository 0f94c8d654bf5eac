// Package ledger reconstructs point-in-time stock balances by replaying
// movement events. No running balance is persisted anywhere; the dispensing
// workflow only maintains a live counter per batch, which is unusable for
// historical rows.
package ledger

import (
	"sort"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
)

// Entry is a movement paired with the stock level immediately after it
// posted.
type Entry struct {
	repository.Movement
	BalanceAfter int `json:"balance_after"`
}

// DateOnly truncates a timestamp to day granularity. All ledger ordering and
// range comparisons happen at this granularity; same-day ordering falls back
// to the insertion id.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sortMovements orders movements by (date, insertion id, source) ascending.
// Source breaks the rare tie between same-day rows from different tables so
// a replay is deterministic.
func sortMovements(movements []repository.Movement) []repository.Movement {
	sorted := make([]repository.Movement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := DateOnly(sorted[i].OccurredOn), DateOnly(sorted[j].OccurredOn)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Source < sorted[j].Source
	})
	return sorted
}

// Replay merges movements from however many sources were active into one
// chronological sequence and computes the running balance after each one in
// a single prefix-sum pass. The balance is clamped at zero: historical data
// can under-report receipts, and a negative stock level is never shown.
//
// Balances are computed over the full input set before any pagination, so a
// page of rows carries correct balances regardless of which page it is.
func Replay(movements []repository.Movement) []Entry {
	sorted := sortMovements(movements)

	entries := make([]Entry, len(sorted))
	running := 0
	for i, m := range sorted {
		running += m.Signed()
		if running < 0 {
			running = 0
		}
		entries[i] = Entry{Movement: m, BalanceAfter: running}
	}
	return entries
}

// BalanceAsOf reconstructs the stock level as of the end of day d: receipts
// dated on or before d count, dispenses strictly before d count. Clamped at
// zero.
func BalanceAsOf(movements []repository.Movement, d time.Time) int {
	day := DateOnly(d)
	balance := 0
	for _, m := range movements {
		mDay := DateOnly(m.OccurredOn)
		switch m.Source.Sign() {
		case 1:
			if !mDay.After(day) {
				balance += m.Quantity
			}
		case -1:
			if mDay.Before(day) {
				balance -= m.Quantity
			}
		}
	}
	if balance < 0 {
		balance = 0
	}
	return balance
}

// Totals sums the received and dispensed quantities in a movement set. Both
// values are positive magnitudes.
func Totals(movements []repository.Movement) (received, dispensed int) {
	for _, m := range movements {
		switch m.Source.Sign() {
		case 1:
			received += m.Quantity
		case -1:
			dispensed += m.Quantity
		}
	}
	return received, dispensed
}

// PeriodStock derives the beginning stock of a period from the authoritative
// ending stock: beginning = ending + dispensed - received, clamped at zero.
// The ending stock is the live available counter summed over non-expired
// batches, which the writer side owns.
func PeriodStock(endingStock, receivedInPeriod, dispensedInPeriod int) (beginning int) {
	beginning = endingStock + dispensedInPeriod - receivedInPeriod
	if beginning < 0 {
		beginning = 0
	}
	return beginning
}
