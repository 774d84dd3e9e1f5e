package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"neuroncore/internal/blob"
	"neuroncore/pkg/collection"
	"neuroncore/pkg/domain"
)

// ReadArchive fetches a JSON export artifact from store and materializes the
// archived collection.
func ReadArchive(ctx context.Context, store blob.Store, key string, codec domain.Codec) (*collection.Collection, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", key, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("archive %s: %w", key, err)
	}
	return collection.FromSnapshot(snap, codec)
}

// AttachImportedTable joins an independently sourced metadata table onto col.
// Every element must have a row; a table missing rows for any element fails.
// Rows for keys absent from the collection are dropped and counted in the
// report.
func AttachImportedTable(col *collection.Collection, data *domain.TableData) (collection.List, collection.Report, error) {
	var report collection.Report
	if data == nil {
		return col, report, nil
	}
	table, err := collection.TableFromData(data)
	if err != nil {
		return nil, collection.Report{}, err
	}
	if table.RowKeys() == nil {
		return nil, collection.Report{}, domain.Configf("imported table must carry row keys")
	}
	keys := col.Keys()
	aligned, err := table.Slice(keys)
	if err != nil {
		return nil, collection.Report{}, fmt.Errorf("imported table incomplete: %w", err)
	}
	if extra := table.NRows() - len(keys); extra > 0 {
		report.Merge(collection.Report{Warnings: []collection.Warning{{
			Op:      "import",
			Message: "table rows without matching elements dropped",
			Count:   extra,
		}}})
	}
	out, err := col.WithTable(aligned)
	if err != nil {
		return nil, collection.Report{}, err
	}
	return out, report, nil
}

// ParseTableCSV reads a metadata table in the export CSV layout: a "key"
// header column followed by one column per attribute. Numeric cells become
// float64, empty cells nil, everything else stays a string.
func ParseTableCSV(r io.Reader) (*domain.TableData, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.Configf("csv table has no header row")
	}
	header := records[0]
	if len(header) == 0 || header[0] != "key" {
		return nil, domain.Configf("csv table must start with a key column")
	}
	data := &domain.TableData{}
	for _, name := range header[1:] {
		data.Columns = append(data.Columns, domain.ColumnData{Name: name})
	}
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, domain.Configf("csv row %d has %d fields, want %d", i+1, len(record), len(header))
		}
		data.RowKeys = append(data.RowKeys, record[0])
		for j, cell := range record[1:] {
			data.Columns[j].Values = append(data.Columns[j].Values, parseCell(cell))
		}
	}
	return data, nil
}

func parseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(cell); err == nil {
		return b
	}
	return cell
}

// NewBlobLoader returns a Loader fetching per-element payloads from store at
// "<prefix><key>.json" and decoding them with codec. Pairs with
// collection.NewLazy for blob-backed collections.
func NewBlobLoader(ctx context.Context, store blob.Store, prefix string, codec domain.Codec) collection.Loader {
	return func(key string) (any, error) {
		_, rc, err := store.Get(ctx, prefix+key+".json")
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		payload, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return codec.Decode(payload)
	}
}

// WriteElements stores each element of src as its own blob under prefix so a
// blob loader can fetch them individually.
func WriteElements(ctx context.Context, store blob.Store, prefix string, src collection.List, codec domain.Codec) error {
	for _, key := range src.Keys() {
		element, err := src.Element(key)
		if err != nil {
			return err
		}
		payload, err := codec.Encode(element)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if _, err := store.Put(ctx, prefix+key+".json", bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"}); err != nil {
			return err
		}
	}
	return nil
}
