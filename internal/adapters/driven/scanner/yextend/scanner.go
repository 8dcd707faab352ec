// Package yextend runs the yextend YARA extension binary against samples.
package yextend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.Scanner = (*Scanner)(nil)

// Output keys with special meaning.
const (
	keyParent    = "Parent File Name"
	keySignature = "File Signature (MD5)"
)

// Scanner invokes yextend as "yextend RULES SAMPLE".
type Scanner struct {
	binary string
}

// NewScanner creates a scanner for the yextend binary at path.
func NewScanner(path string) *Scanner {
	return &Scanner{binary: path}
}

// Available reports whether the yextend binary exists and is executable.
func (s *Scanner) Available() error {
	if s.binary == "" {
		return fmt.Errorf("%w: no yextend path configured", domain.ErrScannerUnavailable)
	}
	info, err := os.Stat(s.binary)
	if err != nil {
		return fmt.Errorf("%w: missing dependency yextend at %s", domain.ErrScannerUnavailable, s.binary)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", domain.ErrScannerUnavailable, s.binary)
	}
	return nil
}

// Scan runs yextend and parses its report. The process is killed when
// ctx is done.
func (s *Scanner) Scan(ctx context.Context, rulesPath, samplePath string) ([]driven.ScanMatch, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, rulesPath, samplePath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running %s %s %s", s.binary, rulesPath, samplePath)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("yextend exited with code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("running yextend: %w", err)
	}

	return ParseOutput(&stdout)
}

// ParseOutput reads yextend's "key: value" report. Values accumulate into
// a match until the file signature line closes it; the first three values
// become the rule, scan type and child name. Parent file lines and lines
// without a colon are ignored.
func ParseOutput(r io.Reader) ([]driven.ScanMatch, error) {
	var (
		matches []driven.ScanMatch
		values  []string
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case keyParent:
			continue
		case keySignature:
			m := driven.ScanMatch{MD5: val}
			fields := []*string{&m.Rule, &m.Type, &m.Child}
			for i := 0; i < len(values) && i < len(fields); i++ {
				*fields[i] = values[i]
			}
			matches = append(matches, m)
			values = nil
		default:
			values = append(values, val)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading yextend output: %w", err)
	}
	return matches, nil
}
