package driven

import "context"

// ScanMatch is one rule hit reported by the scanner.
type ScanMatch struct {
	Rule  string
	Type  string
	Child string
	MD5   string
}

// Scanner runs compiled rule sets against sample files.
type Scanner interface {
	// Available returns domain.ErrScannerUnavailable if the scanner cannot run.
	Available() error

	// Scan runs the rules file against a sample and returns the matches.
	Scan(ctx context.Context, rulesPath, samplePath string) ([]ScanMatch, error)
}
