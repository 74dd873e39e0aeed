package watch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"twapScope/internal/model"
	"twapScope/internal/twap"
)

type fakeChain struct {
	chainID *big.Int
	block   uint64
	ts      uint64
}

func (f *fakeChain) GetChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.block, nil
}

func (f *fakeChain) BlockTimestamp(context.Context, uint64) (uint64, error) {
	return f.ts, nil
}

type fakeSink struct {
	records []model.QuoteRecord
}

func (f *fakeSink) PutQuoteBatch(quotes []model.QuoteRecord) error {
	f.records = append(f.records, quotes...)
	return nil
}

type flakySource struct {
	failures        int
	tickCumulatives []int64
	calls           int
}

func (f *flakySource) Observe(_ context.Context, _ []uint32) ([]int64, []*uint256.Int, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, nil, fmt.Errorf("transient rpc error")
	}
	return f.tickCumulatives, []*uint256.Int{uint256.NewInt(0), uint256.NewInt(0)}, nil
}

func testConfig() Config {
	return Config{
		Pool:         common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"),
		BaseToken:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		QuoteToken:   common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Fee:          3000,
		BaseAmount:   uint256.NewInt(1_000_000),
		Window:       50,
		Interval:     time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
}

func TestConsultOnce(t *testing.T) {
	chain := &fakeChain{chainID: big.NewInt(1), block: 19_000_000, ts: 1_700_000_000}
	sink := &fakeSink{}
	source := &flakySource{tickCumulatives: []int64{1000, 1100}}

	w := NewWatcher(testConfig(), chain, source, sink, nil)
	if err := w.consultOnce(context.Background(), 1); err != nil {
		t.Fatalf("consult once: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.MeanTick != 2 {
		t.Fatalf("mean tick mismatch: %d", record.MeanTick)
	}
	if record.QuoteAmount != "1000200" {
		t.Fatalf("quote amount mismatch: %s", record.QuoteAmount)
	}
	if record.BlockNumber != 19_000_000 || record.Timestamp != 1_700_000_000 {
		t.Fatalf("block stamp mismatch: %+v", record)
	}
	if record.ChainID != 1 || record.Fee != 3000 || record.WindowSecs != 50 {
		t.Fatalf("record fields mismatch: %+v", record)
	}
}

func TestConsultOnceRetriesTransientFailures(t *testing.T) {
	chain := &fakeChain{chainID: big.NewInt(1), block: 1, ts: 1}
	sink := &fakeSink{}
	source := &flakySource{failures: 2, tickCumulatives: []int64{0, 100}}

	w := NewWatcher(testConfig(), chain, source, sink, nil)
	if err := w.consultOnce(context.Background(), 1); err != nil {
		t.Fatalf("consult once: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 observe calls, got %d", source.calls)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
}

type statefulSink struct {
	fakeSink
	state map[string]uint64
}

func (s *statefulSink) LoadState(_ context.Context, name string) (uint64, bool, error) {
	v, ok := s.state[name]
	return v, ok, nil
}

func (s *statefulSink) SaveState(_ context.Context, name string, block uint64) error {
	if s.state == nil {
		s.state = make(map[string]uint64)
	}
	s.state[name] = block
	return nil
}

func TestConsultOnceSavesState(t *testing.T) {
	chain := &fakeChain{chainID: big.NewInt(1), block: 42, ts: 9}
	sink := &statefulSink{}
	source := &flakySource{tickCumulatives: []int64{0, 0}}

	w := NewWatcher(testConfig(), chain, source, sink, nil)
	if err := w.consultOnce(context.Background(), 1); err != nil {
		t.Fatalf("consult once: %v", err)
	}
	if got := sink.state[w.stateName()]; got != 42 {
		t.Fatalf("state block mismatch: got %d, want 42", got)
	}
}

func TestRunRejectsZeroWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Window = 0

	w := NewWatcher(cfg, &fakeChain{chainID: big.NewInt(1)}, &flakySource{}, &fakeSink{}, nil)
	if err := w.Run(context.Background()); !errors.Is(err, twap.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return fmt.Errorf("always fails")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}
