// Package notebook locates the notebook document that carries a project's
// mark block.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"

	"github.com/ahrav/go-prograde/infrastructure/markblock"
	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// Extension is the file extension of candidate notebook documents.
const Extension = ".ipynb"

var _ ports.MarkLocator = (*Locator)(nil)

// Locator implements ports.MarkLocator over notebooks stored directly in a
// project directory (subdirectories are not searched).
//
// Candidates are tried in lexical file name order and the first notebook
// whose final cell yields a non-empty mark set wins. Projects should carry
// at most one mark block; when several notebooks do, the later ones are
// ignored and a warning names them.
type Locator struct {
	logger *log.Logger
}

// NewLocator creates a Locator that reports ambiguous projects to logger.
// A nil logger discards warnings.
func NewLocator(logger *log.Logger) *Locator {
	if logger == nil {
		logger = log.New("notebook")
		logger.SetOutput(io.Discard)
	}
	return &Locator{logger: logger}
}

// Locate returns the first non-empty mark set among the notebooks in dir.
// A missing directory is treated like a directory without notebooks. Once a
// mark set is found, later notebooks are only read to warn about a second
// mark block; read errors in them are logged, not returned.
func (l *Locator) Locate(ctx context.Context, dir string) (domain.MarkSet, bool, error) {
	paths, err := notebooks(dir)
	if err != nil {
		return nil, false, err
	}

	var (
		marks domain.MarkSet
		first string
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		found, ok, err := readMarks(path)
		if err != nil {
			if marks == nil {
				return nil, false, err
			}
			l.logger.Warnf("skipping %s: %v", path, err)
			continue
		}
		if !ok || len(found) == 0 {
			continue
		}
		if marks != nil {
			l.logger.Warnf("ignoring marks in %s: already using %s", path, first)
			continue
		}
		marks, first = found, path
	}

	if marks == nil {
		return nil, false, nil
	}
	l.logger.Debugf("using marks from %s", first)
	return marks, true, nil
}

// notebooks lists the regular files in dir with the notebook extension, in
// lexical order. dir is used literally, never as a pattern.
func notebooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list notebooks in %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// ReadDir sorts by file name already.
	return paths, nil
}

func readMarks(path string) (domain.MarkSet, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read notebook: %w", err)
	}
	marks, ok, err := markblock.ParseNotebook(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return marks, ok, nil
}
