// Command neuroncore manages stored collections from the command line:
// listing them, importing snapshot JSON, and exporting artifacts to the
// configured blob store. Storage and blob backends are selected through the
// NEURONCORE_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"neuroncore/internal/adapters/archive"
	"neuroncore/internal/blob"
	"neuroncore/internal/core"
	"neuroncore/pkg/collection"
	"neuroncore/pkg/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "neuroncore: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out *os.File) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: neuroncore <list|import|export|delete> [flags]")
	}
	ctx := context.Background()
	store, err := core.OpenPersistentStore()
	if err != nil {
		return err
	}
	svc := core.NewService(store, core.WithMetrics(core.NewExpvarMetricsRecorder("")))

	switch args[0] {
	case "list":
		return runList(ctx, svc, out)
	case "import":
		return runImport(ctx, svc, args[1:])
	case "export":
		return runExport(ctx, store, args[1:], out)
	case "delete":
		return runDelete(ctx, svc, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runList(ctx context.Context, svc *core.Service, out *os.File) error {
	summaries, err := svc.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		table := ""
		if summary.HasTable {
			table = " +table"
		}
		fmt.Fprintf(out, "%s\t%d elements%s\t%s\n", summary.Name, summary.Elements, table, summary.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runImport(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", "", "snapshot JSON file")
	name := fs.String("name", "", "override collection name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("import requires -file")
	}
	payload, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode %s: %w", *file, err)
	}
	if *name != "" {
		snap.Name = *name
	}
	col, err := collection.FromSnapshot(snap, svc.Codec())
	if err != nil {
		return err
	}
	_, err = svc.SaveCollection(ctx, snap.Name, col)
	return err
}

func runExport(ctx context.Context, store domain.PersistentStore, args []string, out *os.File) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	name := fs.String("collection", "", "collection to export")
	formats := fs.String("formats", "json,csv", "comma-separated formats")
	timeout := fs.Duration("timeout", 30*time.Second, "how long to wait for the export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("export requires -collection")
	}
	blobs, err := blob.Open(ctx)
	if err != nil {
		return err
	}

	worker := archive.NewWorker(store, blobs, nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	var requested []archive.Format
	for _, f := range strings.Split(*formats, ",") {
		if f = strings.TrimSpace(f); f != "" {
			requested = append(requested, archive.Format(f))
		}
	}
	record, err := worker.EnqueueExport(ctx, archive.ExportInput{Collection: *name, Formats: requested})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(*timeout)
	for time.Now().Before(deadline) {
		record, _ = worker.GetExport(record.ID)
		if record.Status == archive.ExportStatusSucceeded || record.Status == archive.ExportStatusFailed {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if record.Status != archive.ExportStatusSucceeded {
		return fmt.Errorf("export %s: status %s: %s", record.ID, record.Status, record.Error)
	}
	for _, artifact := range record.Artifacts {
		fmt.Fprintf(out, "%s\t%s\t%d bytes\t%s\n", artifact.Format, artifact.Key, artifact.SizeBytes, artifact.URL)
	}
	return nil
}

func runDelete(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	name := fs.String("collection", "", "collection to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("delete requires -collection")
	}
	return svc.DeleteCollection(ctx, *name)
}
