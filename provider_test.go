package lotplan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStaticPrices(t *testing.T) {
	src := StaticPrices{"A": RUB(10)}
	if p, err := src.Price(context.Background(), "A"); err != nil || !p.Equal(RUB(10)) {
		t.Errorf("Price(A) = %v, %v, want 10", p.value, err)
	}
	if _, err := src.Price(context.Background(), "B"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Price(B) error = %v, want ErrUnavailable", err)
	}
}

func TestLayered(t *testing.T) {
	failing := PriceSourceFunc(func(context.Context, string) (Money, error) {
		return Money{}, errors.New("boom")
	})
	src := Layered{failing, StaticPrices{"A": RUB(0), "B": RUB(20)}, StaticPrices{"A": RUB(10)}}

	if p, err := src.Price(context.Background(), "A"); err != nil || !p.Equal(RUB(10)) {
		t.Errorf("Price(A) = %v, %v, want 10 from the last layer", p.value, err)
	}
	if p, err := src.Price(context.Background(), "B"); err != nil || !p.Equal(RUB(20)) {
		t.Errorf("Price(B) = %v, %v, want 20", p.value, err)
	}
	if _, err := src.Price(context.Background(), "C"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Price(C) error = %v, want ErrUnavailable", err)
	}
}

func TestFetchSnapshot(t *testing.T) {
	src := PriceSourceFunc(func(_ context.Context, ticker string) (Money, error) {
		switch ticker {
		case "LKOH":
			return RUB(7000), nil
		case "SBER":
			return RUB(300.5), nil
		case "PHOR":
			return RUB(-1), nil
		default:
			return Money{}, ErrUnavailable
		}
	})
	s, err := FetchSnapshot(context.Background(), src, DefaultCatalog(), 0)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if diff := cmp.Diff([]string{"LKOH", "SBER"}, s.Tickers()); diff != "" {
		t.Errorf("Tickers() mismatch (-want +got):\n%s", diff)
	}
	if p, _ := s.Price("SBER"); !p.Equal(RUB(300.5)) {
		t.Errorf("Price(SBER) = %v, want 300.5", p.value)
	}
	if s.TakenAt().IsZero() {
		t.Error("TakenAt() is zero")
	}
}

func TestFetchSnapshot_Concurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	src := PriceSourceFunc(func(context.Context, string) (Money, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return RUB(1), nil
	})
	s, err := FetchSnapshot(context.Background(), src, DefaultCatalog(), 2)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("%d lookups ran at once, want at most 2", got)
	}
}

func TestFetchSnapshot_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := StaticPrices{"LKOH": RUB(7000)}
	if _, err := FetchSnapshot(ctx, src, DefaultCatalog(), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchSnapshot() error = %v, want context.Canceled", err)
	}
}

func TestFetchSnapshot_OtherCurrency(t *testing.T) {
	src := StaticPrices{"LKOH": RUB(7000), "SBER": M(3.5, "USD"), "PHOR": NO(6000)}
	s, err := FetchSnapshot(context.Background(), src, DefaultCatalog(), 0)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if diff := cmp.Diff([]string{"LKOH", "PHOR"}, s.Tickers()); diff != "" {
		t.Errorf("Tickers() mismatch (-want +got):\n%s", diff)
	}
}
