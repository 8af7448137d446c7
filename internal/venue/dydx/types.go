package dydx

// Wire types for the subset of the dYdX REST API the adapter touches.

type orderbookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type marketsResponse struct {
	Markets map[string]marketInfo `json:"markets"`
}

type marketInfo struct {
	Market       string `json:"market"`
	TickSize     string `json:"tickSize"`
	StepSize     string `json:"stepSize"`
	MinOrderSize string `json:"minOrderSize"`
}

type accountResponse struct {
	Account accountInfo `json:"account"`
}

type accountInfo struct {
	Equity        string                  `json:"equity"`
	OpenPositions map[string]positionInfo `json:"openPositions"`
}

type positionInfo struct {
	Market string `json:"market"`
	Side   string `json:"side"`
	Size   string `json:"size"`
}

type userResponse struct {
	User userInfo `json:"user"`
}

type userInfo struct {
	MakerVolume30D string `json:"makerVolume30D"`
	TakerVolume30D string `json:"takerVolume30D"`
}

type fillsResponse struct {
	Fills []fillInfo `json:"fills"`
}

type fillInfo struct {
	Market    string `json:"market"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	CreatedAt string `json:"createdAt"`
}

type orderRequest struct {
	Market      string `json:"market"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Size        string `json:"size"`
	Price       string `json:"price"`
	TimeInForce string `json:"timeInForce"`
	PostOnly    bool   `json:"postOnly"`
	LimitFee    string `json:"limitFee"`
	Expiration  string `json:"expiration"`
}

type apiError struct {
	Errors []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}
