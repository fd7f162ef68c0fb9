// Package dto defines the KIS daily price response envelope.
// Every numeric field arrives as text, some with thousands separators;
// conversion happens in the adapter, not here.
package dto

// DailyRow is one daily bar in the response body (output2).
type DailyRow struct {
	StckBsopDate string `json:"stck_bsop_date"` // trade date, YYYYMMDD
	StckClpr     string `json:"stck_clpr"`      // close
	StckOprc     string `json:"stck_oprc"`      // open
	StckHgpr     string `json:"stck_hgpr"`      // high
	StckLwpr     string `json:"stck_lwpr"`      // low
	AcmlVol      string `json:"acml_vol"`       // accumulated volume
	AcmlTrPbmn   string `json:"acml_tr_pbmn"`   // accumulated trading value
	FlngClsCode  string `json:"flng_cls_code"`
	PrttRate     string `json:"prtt_rate"`
	ModYn        string `json:"mod_yn"`
	PrdyVrssSign string `json:"prdy_vrss_sign"` // prior-day change sign code
	PrdyVrss     string `json:"prdy_vrss"`      // prior-day change amount
}

// DailyPriceResponse is the header/body envelope KIS returns for
// the daily item chart price endpoint.
type DailyPriceResponse struct {
	RtCd    string     `json:"rt_cd"`  // "0" on success
	MsgCd   string     `json:"msg_cd"`
	Msg1    string     `json:"msg1"`
	Output2 []DailyRow `json:"output2"`
}
