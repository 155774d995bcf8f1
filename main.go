package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/acavaille/stanza/internal/config"
	"github.com/acavaille/stanza/internal/engine"
	"github.com/acavaille/stanza/internal/errmsg"
	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/importer"
	"github.com/acavaille/stanza/internal/library"
	"github.com/acavaille/stanza/internal/mediasession"
	"github.com/acavaille/stanza/internal/playback"
	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/playlists"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
}

func run() error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider := fileaccess.NewOSProvider()

	lib := library.New(st, log)
	if err := lib.Load(provider); err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpLibraryLoad, err)
	}

	pls, err := playlists.NewManager(st, log)
	if err != nil {
		return err
	}
	favs, err := playlists.NewFavorites(st)
	if err != nil {
		return err
	}

	p := player.New()
	p.SetVolume(cfg.StartupVolume())

	ctrl := playback.New(p, queue.New(nil), lib, log)
	ctrl.SetRestartThreshold(cfg.RestartThreshold())
	defer ctrl.Close()

	imp := importer.New(lib, provider, log)
	imp.SetProbeDurations(cfg.Import.ProbeDurations)

	eng := engine.New(lib, pls, favs, ctrl, st, log)
	eng.SetSeekOffset(cfg.SeekOffset())
	eng.SetImporter(imp)

	if cfg.RestoreQueue() {
		if err := eng.RestoreQueue(); err != nil {
			log.Warn("queue restore failed", "error", err)
		}
	}

	if cfg.MediaSessionEnabled() {
		session, err := mediasession.New(ctrl)
		if err != nil {
			log.Warn("media session unavailable", "error", err)
		} else {
			defer session.Close()
		}
	}

	log.Info("stanza running", "songs", lib.Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := eng.SaveQueue(); err != nil {
		log.Warn("queue save failed", "error", err)
	}
	return nil
}

func openStore(cfg *config.Config) (*store.Manager, error) {
	if cfg.DataDir != "" {
		return store.OpenAt(filepath.Join(cfg.DataDir, "stanza.db"))
	}
	return store.Open()
}
