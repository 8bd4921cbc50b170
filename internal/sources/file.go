package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mtgtools/metagame/internal/deck"
	"github.com/mtgtools/metagame/internal/reconcile"
)

// FileDecklistSource loads decklists from a JSON file or from every
// .json file in a directory. Directory contents are read in lexicographic
// order so repeated runs see the same input sequence.
type FileDecklistSource struct {
	Path string
}

// Decklists loads and normalizes all decklists under the source path.
func (s *FileDecklistSource) Decklists(_ context.Context) ([]deck.Decklist, error) {
	var decks []deck.Decklist
	err := eachJSONFile(s.Path, func(path string, data []byte) error {
		var batch []deck.Decklist
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("parse decklists %s: %w", path, err)
		}
		for i := range batch {
			batch[i].Normalize()
		}
		decks = append(decks, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decks, nil
}

// FileMatchSource loads match records from a JSON file or from every
// .json file in a directory, in lexicographic order.
type FileMatchSource struct {
	Path string
}

// Matches loads all match records under the source path.
func (s *FileMatchSource) Matches(_ context.Context) ([]reconcile.MatchRecord, error) {
	var records []reconcile.MatchRecord
	err := eachJSONFile(s.Path, func(path string, data []byte) error {
		var batch []reconcile.MatchRecord
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("parse match records %s: %w", path, err)
		}
		records = append(records, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// eachJSONFile calls fn with the contents of path, or of every .json
// file directly inside it when path is a directory.
func eachJSONFile(path string, fn func(path string, data []byte) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat source path: %w", err)
	}

	paths := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("read source directory: %w", err)
		}
		paths = paths[:0]
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
				continue
			}
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
		sort.Strings(paths)
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read source file: %w", err)
		}
		if err := fn(p, data); err != nil {
			return err
		}
	}
	return nil
}
