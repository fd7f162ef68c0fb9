// Package kis implements the daily price fetcher against the KIS open API.
package kis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stock_ingest/internal/feature/prices/adapters/kis/dto"
	"stock_ingest/internal/feature/prices/domain/entity"
	"stock_ingest/internal/platform/kisclient"
	"stock_ingest/internal/shared/numparse"
)

const (
	dailyPricePath = "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	dailyPriceTrID = "FHKST03010100"
)

// PriceAPI fetches date-bounded daily OHLCV series from KIS.
type PriceAPI struct {
	client *kisclient.Client
}

// NewPriceAPI creates a new PriceAPI on the given client.
func NewPriceAPI(client *kisclient.Client) *PriceAPI {
	return &PriceAPI{client: client}
}

// FetchDaily retrieves the daily series for one ticker over [start, end]
// and converts it into DailyPrice records. StockID is left zero; the
// caller maps tickers to surrogate keys.
func (a *PriceAPI) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]entity.DailyPrice, error) {
	q := url.Values{}
	q.Set("FID_COND_MRKT_DIV_CODE", "J") // domestic stocks
	q.Set("FID_INPUT_ISCD", ticker)
	q.Set("FID_INPUT_DATE_1", start.Format("20060102"))
	q.Set("FID_INPUT_DATE_2", end.Format("20060102"))
	q.Set("FID_PERIOD_DIV_CODE", "D")
	q.Set("FID_ORG_ADJ_PRC", "0")

	var res dto.DailyPriceResponse
	opts := kisclient.RequestOptions{TrID: dailyPriceTrID, Auth: true, Query: q}
	if err := a.client.Get(ctx, dailyPricePath, opts, &res); err != nil {
		return nil, err
	}
	if res.RtCd != "0" {
		return nil, fmt.Errorf("kis daily price %s: %s (%s)", ticker, res.Msg1, res.MsgCd)
	}

	out := make([]entity.DailyPrice, 0, len(res.Output2))
	for _, row := range res.Output2 {
		// Holiday padding rows come back with an empty date; skip them.
		if row.StckBsopDate == "" {
			continue
		}
		d, err := numparse.Date8(row.StckBsopDate)
		if err != nil {
			return nil, err
		}

		out = append(out, entity.DailyPrice{
			TradeDate: d,
			// Required fields degrade to zero on malformed input
			// rather than dropping the row.
			Open:   numparse.FloatOrZero(row.StckOprc),
			High:   numparse.FloatOrZero(row.StckHgpr),
			Low:    numparse.FloatOrZero(row.StckLwpr),
			Close:  numparse.FloatOrZero(row.StckClpr),
			Volume: numparse.Int64OrZero(row.AcmlVol),

			TradingValue: numparse.Float(row.AcmlTrPbmn),
			// output2 carries only the prior-day change amount; the
			// change rate and adjusted close stay absent here.
			ChangeAmount: numparse.Float(row.PrdyVrss),
		})
	}
	return out, nil
}
