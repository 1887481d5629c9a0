package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"rssreader/internal/cache"
	"rssreader/internal/config"
	"rssreader/internal/logging"
	"rssreader/internal/read"
	"rssreader/internal/server"
	"rssreader/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "rss-reader",
		Usage:   "Pure Go command-line RSS reader",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Print news from the specified date (YYYYMMDD), read from the cache"},
			&cli.StringFlag{Name: "to-html", Usage: "Convert news to html and save them to RSS_ITEMS.html in `DIR`"},
			&cli.StringFlag{Name: "to-pdf", Usage: "Convert news to pdf and save them to RSS_ITEMS.pdf in `DIR`"},
			&cli.BoolFlag{Name: "json", Usage: "Print result as JSON in stdout"},
			&cli.BoolFlag{Name: "colorize", Usage: "Print the result in colorized mode in stdout"},
			&cli.IntFlag{Name: "limit", Usage: "Limit news topics if this parameter provided"},
			&cli.BoolFlag{Name: "verbose", Usage: "Outputs verbose status messages", Sources: cli.EnvVars("RSS_READER_VERBOSE")},
			&cli.StringFlag{Name: "config", Usage: "Config file (default ~/.config/rss-reader/config.yaml)", Sources: cli.EnvVars("RSS_READER_CONFIG")},
			&cli.StringFlag{Name: "db", Usage: "SQLite cache file", Sources: cli.EnvVars("RSS_READER_DB")},
			&cli.StringFlag{Name: "log-file", Usage: "Append log messages to this file", Sources: cli.EnvVars("RSS_READER_LOG_FILE")},
			&cli.IntFlag{Name: "timeout", Usage: "Seconds to wait for a feed or image (default 5)", Sources: cli.EnvVars("RSS_READER_TIMEOUT")},
			&cli.StringFlag{Name: "pdf-font", Usage: "TrueType font for PDF export", Sources: cli.EnvVars("RSS_READER_PDF_FONT")},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "source",
				UsageText: "RSS URL",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, closeLog, err := setup(c)
			if err != nil {
				return err
			}
			defer closeLog()

			logger.WithFields(logrus.Fields{
				"source": c.StringArg("source"),
				"date":   c.String("date"),
				"limit":  c.Int("limit"),
			}).Info("start program")

			err = read.Run(ctx, cfg, logger, read.Options{
				Source:   c.StringArg("source"),
				Date:     c.String("date"),
				Limit:    c.Int("limit"),
				JSON:     c.Bool("json"),
				Colorize: c.Bool("colorize"),
				ToHTML:   c.String("to-html"),
				ToPDF:    c.String("to-pdf"),
			})
			if err != nil {
				logger.WithError(err).Error("request failed")
			}
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Run MCP server on stdio over the cache",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, logger, closeLog, err := setup(c)
					if err != nil {
						return err
					}
					defer closeLog()
					return server.Run(ctx, cache.New(cfg.DatabasePath), logger)
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a cached item",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "guid",
						UsageText: "item guid",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					guid := strings.TrimSpace(c.StringArg("guid"))
					if guid == "" {
						return errors.New("guid is required")
					}
					cfg, logger, closeLog, err := setup(c)
					if err != nil {
						return err
					}
					defer closeLog()

					store := cache.New(cfg.DatabasePath)
					if err := store.InitSchema(ctx); err != nil {
						return err
					}
					if err := store.Delete(ctx, guid); err != nil {
						return err
					}
					logger.WithField("guid", guid).Info("item deleted")
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a default config file and create the cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config file (a backup is kept)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, logger, closeLog, err := setup(c)
					if err != nil {
						return err
					}
					defer closeLog()

					path, err := configPath(c)
					if err != nil {
						return err
					}
					if _, err := os.Stat(path); err == nil {
						if !c.Bool("force") {
							return fmt.Errorf("config %s already exists, use --force to overwrite", path)
						}
						bak, err := config.BackupFile(path)
						if err != nil {
							return err
						}
						fmt.Printf("Previous config saved to %s\n", bak)
					}
					if err := config.Write(path, cfg); err != nil {
						return err
					}
					if err := cache.New(cfg.DatabasePath).InitSchema(ctx); err != nil {
						return err
					}
					logger.WithField("config", path).Info("config written")
					fmt.Printf("Config written to %s\nCache ready at %s\n", path, cfg.DatabasePath)
					return nil
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configPath(c *cli.Command) (string, error) {
	if p := strings.TrimSpace(c.String("config")); p != "" {
		return config.ExpandPath(p), nil
	}
	return config.DefaultPath()
}

// setup loads the config file, applies flag overrides and builds the logger.
func setup(c *cli.Command) (config.Config, *logrus.Logger, func() error, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, nil, err
	}
	if v := strings.TrimSpace(c.String("db")); v != "" {
		cfg.DatabasePath = config.ExpandPath(v)
	}
	if v := c.Int("timeout"); v > 0 {
		cfg.Timeout = time.Duration(v) * time.Second
	}
	if v := strings.TrimSpace(c.String("log-file")); v != "" {
		cfg.LogFile = config.ExpandPath(v)
	}
	if v := strings.TrimSpace(c.String("pdf-font")); v != "" {
		cfg.PDFFont = config.ExpandPath(v)
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}

	logger, closeLog, err := logging.New(logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile})
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}
