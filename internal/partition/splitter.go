package partition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-playground/validator/v10"

	"dataingest/internal/dataset"
	apperrors "dataingest/internal/errors"
)

// Options controls a split
type Options struct {
	// TestSize is the fraction of rows assigned to the test subset
	TestSize float64 `validate:"gt=0,lt=1"`

	// RandomState seeds the shuffle
	RandomState int64
}

// Partition holds the two disjoint subsets produced by a split
type Partition struct {
	Train *dataset.Dataset
	Test  *dataset.Dataset
}

// Splitter divides a dataset into train and test subsets
type Splitter struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewSplitter creates a new splitter
func NewSplitter(logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{
		logger:   logger,
		validate: validator.New(),
	}
}

// TestCount returns the number of test rows for n rows at the given fraction
func TestCount(n int, testSize float64) int {
	return int(math.Round(testSize * float64(n)))
}

// Split shuffles the row positions of ds with a generator seeded by opts.RandomState
// and cuts TestCount rows from the end of the shuffled sequence as the test subset.
// The same dataset, fraction and seed always give the same partition.
func (s *Splitter) Split(ctx context.Context, ds *dataset.Dataset, opts Options) (*Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, "split cancelled", err)
	}

	if err := s.validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			err = fmt.Errorf("test_size must be in (0, 1), got %v", opts.TestSize)
		}
		return nil, s.fail(ctx, "invalid split options", err)
	}

	if ds == nil {
		return nil, s.fail(ctx, "no dataset to split", nil)
	}

	n := ds.Len()
	nTest := TestCount(n, opts.TestSize)
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, s.fail(ctx,
			fmt.Sprintf("split of %d rows at test_size %v leaves an empty subset (train %d, test %d)", n, opts.TestSize, nTrain, nTest),
			nil)
	}

	perm := rand.New(rand.NewSource(opts.RandomState)).Perm(n)

	p := &Partition{
		Train: ds.Take(perm[:nTrain]),
		Test:  ds.Take(perm[nTrain:]),
	}

	s.logger.InfoContext(ctx, "raw data split into train and test data",
		slog.Int("train_rows", nTrain),
		slog.Int("test_rows", nTest),
		slog.Float64("test_size", opts.TestSize),
		slog.Int64("random_state", opts.RandomState))

	return p, nil
}

func (s *Splitter) fail(ctx context.Context, message string, cause error) error {
	attrs := []any{slog.String("reason", message)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	s.logger.ErrorContext(ctx, "Error occurred while splitting the data", attrs...)
	return apperrors.NewSplitError(message, cause)
}
