package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

type stressOptions struct {
	dir        string
	workers    int
	tuples     int
	maxRetries int
}

func newStressCmd() *cobra.Command {
	opts := stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Insert from concurrent transactions and verify the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.workers <= 0 || opts.tuples <= 0 {
				return fmt.Errorf("--workers and --tuples must be positive")
			}
			return runStress(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", cfg.Storage.DataDir, "directory for the stress table")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "concurrent transactions")
	cmd.Flags().IntVar(&opts.tuples, "tuples", 100, "tuples inserted by each transaction")
	cmd.Flags().IntVar(&opts.maxRetries, "retries", 100, "attempts per worker before giving up")
	return cmd
}

func runStress(cmd *cobra.Command, opts stressOptions) error {
	path := primitives.Filepath(opts.dir).Join("stress.dat")
	if err := path.EnsureDir(0o755); err != nil {
		return err
	}

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"worker", "seq"})
	if err != nil {
		return err
	}

	s, err := openStore(path, td)
	if err != nil {
		return err
	}
	defer s.Close()

	before, err := s.count()
	if err != nil {
		return err
	}

	var aborts atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(cmd.Context())
	for w := range opts.workers {
		g.Go(func() error {
			return stressWorker(ctx, s, td, int32(w), opts, &aborts)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	after, err := s.count()
	if err != nil {
		return err
	}
	inserted := opts.workers * opts.tuples
	if after-before != inserted {
		return fmt.Errorf("expected %d new tuples, found %d", inserted, after-before)
	}

	size, err := s.file.Size()
	if err != nil {
		return err
	}
	stats := s.pool.Stats()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "inserted %s tuples in %s (%s tuples/s), %d aborts retried\n",
		humanize.Comma(int64(inserted)), elapsed.Round(time.Millisecond),
		humanize.Comma(int64(float64(inserted)/elapsed.Seconds())), aborts.Load())
	fmt.Fprintf(out, "table holds %s tuples in %s\n", humanize.Comma(int64(after)), humanize.IBytes(uint64(size)))
	fmt.Fprintf(out, "buffer pool: %d/%d resident, %s hits, %s misses, %s evictions\n",
		stats.Resident, stats.Capacity, humanize.Comma(int64(stats.Hits)),
		humanize.Comma(int64(stats.Misses)), humanize.Comma(int64(stats.Evictions)))
	return nil
}

// stressWorker inserts opts.tuples rows in one transaction, starting over
// whenever the transaction is aborted by a lock timeout.
func stressWorker(ctx context.Context, s *store, td *tuple.TupleDescription, worker int32, opts stressOptions, aborts *atomic.Int64) error {
	for attempt := 1; attempt <= opts.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tid := s.pool.Begin()
		err := insertRows(s, tid, td, worker, opts.tuples)
		if err == nil {
			return s.pool.TransactionComplete(tid, true)
		}
		if abortErr := s.pool.TransactionComplete(tid, false); abortErr != nil {
			return abortErr
		}
		if !dberror.IsTransactionAborted(err) {
			return err
		}

		aborts.Add(1)
		logging.WithTx(tid).Debug("retrying aborted transaction",
			zap.Int32("worker", worker), zap.Int("attempt", attempt))
		time.Sleep(time.Duration(rand.IntN(20)+1) * time.Millisecond)
	}
	return fmt.Errorf("worker %d gave up after %d attempts", worker, opts.maxRetries)
}

func insertRows(s *store, tid primitives.TransactionID, td *tuple.TupleDescription, worker int32, n int) error {
	for i := range n {
		t, err := tuple.FromFields(td, types.NewIntField(worker), types.NewIntField(int32(i)))
		if err != nil {
			return err
		}
		if err := s.pool.InsertTuple(tid, s.file.GetID(), t); err != nil {
			return err
		}
	}
	return nil
}
