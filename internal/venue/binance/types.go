package binance

// Wire types for the subset of the Binance spot REST API the adapter touches.
// All numeric fields arrive as strings and are parsed at the boundary.

type depthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

type accountResponse struct {
	Balances []assetBalance `json:"balances"`
}

type assetBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

type openOrder struct {
	OrderID  int64  `json:"orderId"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	OrigQty  string `json:"origQty"`
	Status   string `json:"status"`
	Type     string `json:"type"`
	ClientID string `json:"clientOrderId"`
}

type orderAck struct {
	OrderID int64 `json:"orderId"`
}

type cancelReplaceResponse struct {
	NewOrderResponse orderAck `json:"newOrderResponse"`
}

type exchangeInfoResponse struct {
	Symbols []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol  string         `json:"symbol"`
	Filters []symbolFilter `json:"filters"`
}

type symbolFilter struct {
	FilterType  string `json:"filterType"`
	MinNotional string `json:"minNotional"`
}

type myTrade struct {
	Symbol  string `json:"symbol"`
	Price   string `json:"price"`
	Qty     string `json:"qty"`
	Time    int64  `json:"time"`
	IsBuyer bool   `json:"isBuyer"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}
