package cache

import (
	"time"
)

// TimeUntilNextMidnight は指定タイムゾーンの次の午前0時までの期間を返します。
// 銘柄ディレクトリのキャッシュTTLに使用します（上場・廃止は日次でしか変わらないため）。
func TimeUntilNextMidnight(loc *time.Location) time.Duration {
	now := time.Now().In(loc)

	// 次の午前0時を計算
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	return next.Sub(now)
}
