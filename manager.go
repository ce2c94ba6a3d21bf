package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
	"photoPreProcessor/session"
	"photoPreProcessor/utils"
)

var (
	configPath string
	printList  bool
	clearDB    bool
	serveMode  bool
)

func main() {
	cfg := defaultConfig()
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.BoolVar(&printList, "print", false, "Print the items of the directory and exit")
	flag.BoolVar(&clearDB, "clear-db", false, "Delete all history and apply records and exit")
	flag.BoolVar(&serveMode, "serve", true, "Run HTTP API server and wait for requests")

	// Overrides for the config file, applied only when given.
	var over Config
	flag.StringVar(&over.Directory, "dir", "", "Directory to load at startup")
	flag.StringVar(&over.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&over.DBDriver, "db-driver", cfg.DBDriver, "History store: sqlite or postgres")
	flag.StringVar(&over.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&over.PostgresDSN, "postgres-dsn", "", "Postgres connection string")
	flag.StringVar(&over.Exiftool, "exiftool", "", "Path to the exiftool binary")
	flag.StringVar(&over.Editor, "editor", cfg.Editor, "External image editor")
	flag.IntVar(&over.ThumbnailSize, "thumbnail-size", cfg.ThumbnailSize, "Thumbnail edge in pixels")
	flag.StringVar(&over.SortOrder, "sort", cfg.SortOrder, "Sort order: name, time or camera")
	flag.BoolVar(&over.Strict, "strict", false, "Report rejected edits as errors")
	flag.BoolVar(&over.CopyrightMarksEdited, "copyright-marks-edited", false, "Count copyright changes as edits")
	flag.BoolVar(&over.DryRun, "dry-run", false, "Log writes and renames instead of performing them")
	flag.BoolVar(&over.Rename, "rename", cfg.Rename, "Rename files after their capture time on apply")
	flag.StringVar(&over.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	applyFlags(&cfg, over)
	if err := cfg.validate(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if clearDB {
		db, err := openHistoryDB(cfg)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open DB")
		}
		defer db.Close()
		if err := db.clearDBTables(); err != nil {
			logrus.WithError(err).Error("Failed to clear DB")
			return
		}
		fmt.Println("Cleared DB tables: keyword_history, copyright_history, applied")
		return
	}

	var (
		reader metadataReader = goexifReader{}
		writer metadataWriter = dryRunWriter{log: logrus.WithField("component", "dry-run")}
		et     *exifTool
	)
	if et, err = openExiftool(cfg.Exiftool); err != nil {
		logrus.WithError(err).Warn("exiftool unavailable, falling back to read-only EXIF parsing")
		et = nil
	} else {
		reader = et
		if !cfg.DryRun {
			writer = et
		}
	}
	closeExiftool := func() {
		if et != nil {
			if err := et.Close(); err != nil {
				logrus.WithError(err).Warn("exiftool close")
			}
		}
	}

	order, _ := gallery.ParseSortOrder(cfg.SortOrder)
	sess := session.New(session.Options{
		Strict:               cfg.Strict,
		CopyrightMarksEdited: cfg.CopyrightMarksEdited,
		Logger:               logrus.StandardLogger(),
	})
	sess.SetSortOrder(order)

	if printList {
		defer closeExiftool()
		if cfg.Directory == "" {
			logrus.Fatal("-print needs a directory")
		}
		records, err := importDirectory(cfg.Directory, reader)
		if err != nil {
			logrus.WithError(err).Fatal("import failed")
		}
		sess.Load(cfg.Directory, records)
		for _, v := range sess.Views() {
			summary, _ := sess.String(v.Filename)
			fmt.Println(summary)
			fmt.Println()
		}
		return
	}

	if !serveMode {
		closeExiftool()
		return
	}

	db, err := openHistoryDB(cfg)
	if err != nil {
		closeExiftool()
		logrus.WithError(err).Fatal("Failed to open DB")
	}

	thumbDir := filepath.Join(os.TempDir(), "photoPreProcessor-thumbnails")
	if cfg.DBDriver == "sqlite" {
		thumbDir = filepath.Join(filepath.Dir(cfg.DBPath), ".thumbnails")
	}
	s := newServer(cfg, sess, db, reader, writer, thumbDir)
	if cfg.Directory != "" {
		if n, err := s.loadDirectory(cfg.Directory); err != nil {
			logrus.WithError(err).Error("initial directory load failed")
		} else {
			logrus.WithFields(logrus.Fields{"directory": cfg.Directory, "items": n}).Info("directory ready")
		}
	}

	srv := StartServer(cfg.Addr, s.routes())
	utils.Quit("photoPreProcessor", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("server shutdown")
		}
		s.apply.Wait()
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("db close")
		}
		closeExiftool()
	})
}

// applyFlags copies the flags that were set on the command line over cfg.
func applyFlags(cfg *Config, over Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Directory = over.Directory
		case "addr":
			cfg.Addr = over.Addr
		case "db-driver":
			cfg.DBDriver = strings.ToLower(over.DBDriver)
		case "db":
			cfg.DBPath = over.DBPath
		case "postgres-dsn":
			cfg.PostgresDSN = over.PostgresDSN
		case "exiftool":
			cfg.Exiftool = over.Exiftool
		case "editor":
			cfg.Editor = over.Editor
		case "thumbnail-size":
			cfg.ThumbnailSize = over.ThumbnailSize
		case "sort":
			cfg.SortOrder = over.SortOrder
		case "strict":
			cfg.Strict = over.Strict
		case "copyright-marks-edited":
			cfg.CopyrightMarksEdited = over.CopyrightMarksEdited
		case "dry-run":
			cfg.DryRun = over.DryRun
		case "rename":
			cfg.Rename = over.Rename
		case "log-level":
			cfg.LogLevel = over.LogLevel
		}
	})
}
