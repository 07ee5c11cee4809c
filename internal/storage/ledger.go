package storage

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Ananth-NQI/wa-group-importer/internal/utils"
)

// LedgerHeader is the first row of every results file
var LedgerHeader = []string{"Phone", "Status", "Timestamp_IST"}

// Ledger is the append-only per-number outcome record of one job
type Ledger interface {
	Reset() error
	Append(phone, status string) error
}

// CSVLedger writes results to a CSV file that is overwritten at each job start
type CSVLedger struct {
	path string
	loc  *time.Location
	now  func() time.Time
	mu   sync.Mutex
}

// NewCSVLedger creates a ledger backed by the file at path
func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{
		path: path,
		loc:  utils.IST(),
		now:  time.Now,
	}
}

// Path returns the file location
func (l *CSVLedger) Path() string {
	return l.path
}

// Reset truncates the file and writes the header row
func (l *CSVLedger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	return writeRows(f, LedgerHeader)
}

// Append adds exactly one row and syncs it to disk
func (l *CSVLedger) Append(phone, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	stamp := l.now().In(l.loc).Format(utils.LedgerTimestampLayout)
	return writeRows(f, []string{phone, status, stamp})
}

// Records reads the whole file back, header included
func (l *CSVLedger) Records() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read ledger")
	}
	return records, nil
}

func writeRows(f *os.File, rows ...[]string) error {
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write ledger")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "sync ledger")
	}
	return errors.Wrap(f.Close(), "close ledger")
}
