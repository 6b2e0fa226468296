package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// ImportResult counts the outcome of Import.
type ImportResult struct {
	Imported int `json:"imported"`
	Rejected int `json:"rejected"`
}

// itemRecord is one exported line. Pointer fields distinguish an absent
// key from a zero value on import.
type itemRecord struct {
	ID          int64   `json:"id,omitempty"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *int64  `json:"category"`
	Quantity    *int64  `json:"quantity,omitempty"`
}

func recordFromItem(it types.Item) itemRecord {
	category := int64(it.Category)
	return itemRecord{
		ID:          it.ID,
		Name:        &it.Name,
		Description: &it.Description,
		Category:    &category,
		Quantity:    &it.Quantity,
	}
}

// values builds an insert payload. The exported id is dropped; storage
// assigns a new one.
func (r itemRecord) values() types.Values {
	v := types.NewValues()
	if r.Name != nil {
		v.PutString(types.ColumnName, *r.Name)
	}
	if r.Description != nil {
		v.PutString(types.ColumnDescription, *r.Description)
	}
	if r.Category != nil {
		v.PutInt(types.ColumnCategory, *r.Category)
	}
	if r.Quantity != nil {
		v.PutInt(types.ColumnQuantity, *r.Quantity)
	}
	return v
}

// Export writes every item in ascending id order to path, one JSON object
// per line. The file is replaced atomically.
func Export(ctx context.Context, repo types.Repository, path string) (int, error) {
	c, err := repo.Query(ctx, types.CollectionAddress, types.Query{SortOrder: types.ColumnID + " ASC"})
	if err != nil {
		return 0, err
	}
	items, err := types.Collect(c)
	if err != nil {
		return 0, err
	}

	records := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(recordFromItem(it))
		if err != nil {
			return 0, fmt.Errorf("encoding item %d: %w", it.ID, err)
		}
		records = append(records, data)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Import inserts every record of the JSONL file at path through repo, so the
// usual validation applies. Records that fail to decode or validate are
// counted as rejected; any other error stops the import.
func Import(ctx context.Context, repo types.Repository, path string) (ImportResult, error) {
	var res ImportResult

	lines, skipped, err := readJSONL(path)
	if err != nil {
		return res, err
	}
	res.Rejected = skipped

	for _, line := range lines {
		var rec itemRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			res.Rejected++
			continue
		}
		if _, err := repo.Insert(ctx, types.CollectionAddress, rec.values()); err != nil {
			if errors.Is(err, types.ErrValidation) {
				res.Rejected++
				continue
			}
			return res, fmt.Errorf("importing %s: %w", path, err)
		}
		res.Imported++
	}
	return res, nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage, along with the number of malformed lines skipped.
func readJSONL(path string) ([]json.RawMessage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
