// Command stanza-import adds audio files to the library database from
// the command line, bypassing the running player.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/acavaille/stanza/internal/config"
	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/importer"
	"github.com/acavaille/stanza/internal/library"
	"github.com/acavaille/stanza/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>...\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(paths []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var st *store.Manager
	if cfg.DataDir != "" {
		st, err = store.OpenAt(filepath.Join(cfg.DataDir, "stanza.db"))
	} else {
		st, err = store.Open()
	}
	if err != nil {
		return err
	}
	defer st.Close()

	provider := fileaccess.NewOSProvider()
	lib := library.New(st, log)
	if err := lib.Load(provider); err != nil {
		return err
	}

	imp := importer.New(lib, provider, log)
	imp.SetProbeDurations(cfg.Import.ProbeDurations)

	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		abs = append(abs, a)
	}

	rep := imp.ImportFiles(context.Background(), abs)
	fmt.Println(rep.String())
	for _, e := range rep.Errors {
		fmt.Fprintln(os.Stderr, " -", e)
	}
	if rep.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
