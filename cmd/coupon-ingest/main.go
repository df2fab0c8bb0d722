package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pizza-bakker/internal/domain/coupon"
	"github.com/xenking/pizza-bakker/internal/storage/postgres"
)

const (
	defaultBatchSize = 5_000
	maxCodeLen       = 32
)

var hundred = decimal.NewFromInt(100)

func main() {
	var (
		databaseURL string
		batchSize   int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", defaultBatchSize, "coupons per upsert transaction")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(),
			"usage: coupon-ingest [flags] file.csv.gz [file.csv.gz ...]\n\n"+
				"Each file is a gzip-compressed CSV of code,discount_percentage lines.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args(), batchSize); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

// upserter is satisfied by *postgres.CouponRepository.
type upserter interface {
	Upsert(ctx context.Context, coupons []coupon.Coupon) (int64, error)
}

func run(ctx context.Context, databaseURL string, files []string, batchSize int) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return ingest(ctx, postgres.NewCouponRepository(pool), files, batchSize)
}

// ingest reads every file concurrently and writes coupons in batches from a
// single writer goroutine.
func ingest(ctx context.Context, repo upserter, files []string, batchSize int) error {
	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan []coupon.Coupon, len(files))

	readers, rctx := errgroup.WithContext(ctx)
	for _, path := range files {
		readers.Go(func() error {
			return readFile(rctx, path, batchSize, func(batch []coupon.Coupon) error {
				select {
				case batches <- batch:
					return nil
				case <-rctx.Done():
					return rctx.Err()
				}
			})
		})
	}
	g.Go(func() error {
		defer close(batches)
		return readers.Wait()
	})

	g.Go(func() error {
		var total, affected int64
		for batch := range batches {
			n, err := repo.Upsert(ctx, batch)
			if err != nil {
				return errors.Wrap(err, "upsert coupons")
			}
			total += int64(len(batch))
			affected += n
			slog.Info("write progress", slog.Int64("read", total), slog.Int64("written", affected))
		}
		slog.Info("write complete", slog.Int64("read", total), slog.Int64("written", affected))
		return nil
	})

	return g.Wait()
}

// readFile streams a gzip CSV file and hands out batches of parsed coupons.
// Malformed lines are logged and skipped.
func readFile(ctx context.Context, path string, batchSize int, emit func([]coupon.Coupon) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var (
		batch   = make([]coupon.Coupon, 0, batchSize)
		line    int
		skipped int
	)
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		c, ok, err := parseLine(scanner.Text())
		if err != nil {
			skipped++
			slog.Warn("skipping line",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			continue
		}

		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := emit(batch); err != nil {
				return err
			}
			batch = make([]coupon.Coupon, 0, batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	if len(batch) > 0 {
		if err := emit(batch); err != nil {
			return err
		}
	}

	slog.Info("file complete",
		slog.String("file", path),
		slog.Int("lines", line),
		slog.Int("skipped", skipped),
	)
	return nil
}

// parseLine parses "code,discount_percentage". Blank lines, comments and
// the header row report ok=false without an error.
func parseLine(s string) (_ coupon.Coupon, ok bool, _ error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return coupon.Coupon{}, false, nil
	}

	code, pct, found := strings.Cut(s, ",")
	if !found {
		return coupon.Coupon{}, false, errors.New("expected code,discount_percentage")
	}
	code, pct = strings.TrimSpace(code), strings.TrimSpace(pct)
	if strings.EqualFold(code, "code") {
		return coupon.Coupon{}, false, nil
	}
	if code == "" || len(code) > maxCodeLen {
		return coupon.Coupon{}, false, errors.Errorf("invalid code length %d", len(code))
	}

	d, err := decimal.NewFromString(pct)
	if err != nil {
		return coupon.Coupon{}, false, errors.Wrap(err, "parse discount")
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return coupon.Coupon{}, false, errors.Errorf("discount %s out of range [0, 100]", d)
	}

	return coupon.Coupon{Code: code, DiscountPercentage: d}, true, nil
}
