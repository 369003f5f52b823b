// Package model_selection provides dataset splitting utilities.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/pkg/errors"
)

// DefaultTestSize is scikit-learn's default test fraction.
const DefaultTestSize = 0.25

// Splitter holds the options of TrainTestSplit.
type Splitter struct {
	TestSize    float64
	RandomState uint64
	Shuffle     bool
}

// SplitOption is a functional option for TrainTestSplit.
type SplitOption func(*Splitter)

// WithTestSize sets the fraction of rows assigned to the test set.
func WithTestSize(size float64) SplitOption {
	return func(s *Splitter) { s.TestSize = size }
}

// WithRandomState seeds the permutation. The same seed always produces
// the same split.
func WithRandomState(seed uint64) SplitOption {
	return func(s *Splitter) { s.RandomState = seed }
}

// WithShuffle disables or enables shuffling. Without shuffling the last
// rows form the test set.
func WithShuffle(shuffle bool) SplitOption {
	return func(s *Splitter) { s.Shuffle = shuffle }
}

// NewSplitter applies opts on top of the defaults (test size 0.25,
// shuffle on, seed 0).
func NewSplitter(opts ...SplitOption) *Splitter {
	s := &Splitter{TestSize: DefaultTestSize, Shuffle: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sizes returns the number of train and test rows for n samples. The test
// set gets ceil(TestSize * n) rows.
func (s *Splitter) Sizes(n int) (nTrain, nTest int, err error) {
	if !(s.TestSize > 0 && s.TestSize < 1) {
		return 0, 0, errors.NewValidationError("test_size", "should be in the (0, 1) range", s.TestSize)
	}
	if n <= 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}

	nTest = int(math.Ceil(s.TestSize * float64(n)))
	nTrain = n - nTest
	if nTrain == 0 {
		return 0, 0, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%v the resulting train set will be empty", n, s.TestSize))
	}
	return nTrain, nTest, nil
}

// Indices returns the row positions of the train and test sets. With
// shuffling, a seeded permutation is drawn and its first nTest entries
// become the test set.
func (s *Splitter) Indices(n int) (train, test []int, err error) {
	nTrain, nTest, err := s.Sizes(n)
	if err != nil {
		return nil, nil, err
	}

	var perm []int
	if s.Shuffle {
		rng := rand.New(rand.NewPCG(s.RandomState, s.RandomState))
		perm = rng.Perm(n)
		return perm[nTest:], perm[:nTest], nil
	}

	perm = make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm[:nTrain], perm[nTrain:], nil
}

// TrainTestSplit returns train and test row positions for n samples.
func TrainTestSplit(n int, opts ...SplitOption) (train, test []int, err error) {
	return NewSplitter(opts...).Indices(n)
}

// TrainTestSplitFrame splits the rows of df.
func TrainTestSplitFrame(df *frame.Frame, opts ...SplitOption) (train, test *frame.Frame, err error) {
	trainIdx, testIdx, err := TrainTestSplit(df.NRows(), opts...)
	if err != nil {
		return nil, nil, err
	}
	if train, err = df.Take(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = df.Take(testIdx); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
