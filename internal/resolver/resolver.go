// Package resolver decides, per request, whether records come from a live
// feed fetch or from the local cache.
package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rssreader/internal/cache"
	"rssreader/internal/config"
	"rssreader/internal/fetch"
	"rssreader/internal/httpclient"
	"rssreader/internal/record"
)

// Fetcher retrieves a feed.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (*fetch.Header, []fetch.Entry, error)
}

// Store is the part of the cache the resolver needs.
type Store interface {
	InitSchema(ctx context.Context) error
	UpsertOne(ctx context.Context, rec record.Record) error
	Query(ctx context.Context, f cache.Filter, limit int) ([]map[string]string, error)
}

// Request selects records. Date is YYYY-MM-DD. A Limit of zero or less
// means no limit.
type Request struct {
	Source string
	Date   string
	Limit  int
}

// Options wire a Resolver.
type Options struct {
	Fetcher Fetcher
	Store   Store
	Logger  *logrus.Logger
	Now     func() time.Time
}

// Resolver serves record requests.
type Resolver struct {
	fetcher    Fetcher
	store      Store
	logger     *logrus.Logger
	normalizer record.Normalizer
}

// New builds a Resolver from explicit collaborators.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		fetcher:    opts.Fetcher,
		store:      opts.Store,
		logger:     logger,
		normalizer: record.Normalizer{Now: opts.Now},
	}
}

// FromConfig builds a Resolver that fetches over HTTP and caches in the
// configured SQLite file.
func FromConfig(cfg config.Config, logger *logrus.Logger) *Resolver {
	return New(Options{
		Fetcher: fetch.New(httpclient.New(cfg.Timeout)),
		Store:   cache.New(cfg.DatabasePath),
		Logger:  logger,
	})
}

// Resolve returns the records selected by req.
//
// A source without a date is fetched live and written through to the cache.
// Every other combination, including a source with a date, is answered from
// the cache alone.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]record.Record, error) {
	r.logger.Debug("init RSS cache db")
	if err := r.store.InitSchema(ctx); err != nil {
		r.logger.WithError(err).Error("can't init RSS cache db")
		return nil, err
	}

	source := strings.ToLower(req.Source)
	if source != "" && req.Date == "" {
		return r.fetchAndStore(ctx, req.Source, req.Limit)
	}

	filter := cache.Filter{}
	if source != "" {
		filter["source"] = source
	}
	if req.Date != "" {
		filter["filter_date"] = req.Date
	}
	return r.fromCache(ctx, filter, req.Limit)
}

func (r *Resolver) fetchAndStore(ctx context.Context, sourceURL string, limit int) ([]record.Record, error) {
	log := r.logger.WithField("source", sourceURL)
	log.Info("make request")

	header, entries, err := r.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		log.WithError(err).Error("fetch failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"title":   header.Title,
		"version": header.Version,
		"items":   len(entries),
	}).Debug("feed parsed")

	records := make([]record.Record, 0, len(entries))
	for _, e := range entries {
		rec := r.normalizer.FromEntry(e, header, sourceURL)
		if err := r.store.UpsertOne(ctx, rec); err != nil {
			log.WithError(err).WithField("guid", rec.GUID).Error("cache write failed")
			return nil, err
		}
		records = append(records, rec)
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	log.WithField("count", len(records)).Info("return RSS feed")
	return records, nil
}

func (r *Resolver) fromCache(ctx context.Context, filter cache.Filter, limit int) ([]record.Record, error) {
	log := r.logger.WithFields(logrus.Fields{"filter": filter, "limit": limit})
	log.Info("get items from RSS cache db")

	rows, err := r.store.Query(ctx, filter, limit)
	if err != nil {
		log.WithError(err).Error("cache query failed")
		return nil, err
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.normalizer.FromRow(row))
	}
	log.WithField("count", len(records)).Info("return RSS feed")
	return records, nil
}
