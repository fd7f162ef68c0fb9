package cache

import (
	"testing"
	"time"
)

// TestTimeUntilNextMidnight は戻り値が常に正で24時間以内であることを検証します。
func TestTimeUntilNextMidnight(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	d := TimeUntilNextMidnight(loc)

	if d <= 0 {
		t.Errorf("expected positive duration, got %v", d)
	}
	if d > 24*time.Hour {
		t.Errorf("expected at most 24h, got %v", d)
	}

	// 現在時刻に加算すると午前0時ちょうどになる
	next := time.Now().In(loc).Add(d)
	if next.Hour() != 0 || next.Minute() != 0 {
		t.Errorf("expected midnight, got %v", next)
	}
}
