package shipping

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"anime-shop/internal/integration/httpx"
)

type GHNConfig struct {
	BaseURL        string
	Token          string
	ShopID         int
	FromDistrictID int
	FromWardCode   string
}

type GHN struct {
	cfg    GHNConfig
	client *httpx.Client
}

func NewGHN(cfg GHNConfig, client *httpx.Client) *GHN {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GHN{cfg: cfg, client: client}
}

func (g *GHN) Name() string { return ProviderGHN }

type ghnFeeReq struct {
	ServiceTypeID  int    `json:"service_type_id"`
	FromDistrictID int    `json:"from_district_id,omitempty"`
	FromWardCode   string `json:"from_ward_code,omitempty"`
	ToDistrictID   int    `json:"to_district_id"`
	ToWardCode     string `json:"to_ward_code"`
	Weight         int    `json:"weight"`
	InsuranceValue int64  `json:"insurance_value"`
}

type ghnFeeResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Total int64 `json:"total"`
	} `json:"data"`
}

func (g *GHN) CalculateFee(ctx context.Context, req FeeRequest) (decimal.Decimal, error) {
	if req.ToDistrictID == 0 || req.ToWardCode == "" {
		return decimal.Zero, fmt.Errorf("ghn: destination district and ward are required")
	}
	body := ghnFeeReq{
		ServiceTypeID:  2,
		FromDistrictID: g.cfg.FromDistrictID,
		FromWardCode:   g.cfg.FromWardCode,
		ToDistrictID:   req.ToDistrictID,
		ToWardCode:     req.ToWardCode,
		Weight:         max(1, req.WeightGrams),
		InsuranceValue: req.Subtotal.IntPart(),
	}
	h := http.Header{}
	h.Set("Token", g.cfg.Token)
	h.Set("ShopId", strconv.Itoa(g.cfg.ShopID))

	var out ghnFeeResp
	url := g.cfg.BaseURL + "/shiip/public-api/v2/shipping-order/fee"
	if err := g.client.DoJSON(ctx, http.MethodPost, url, h, body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("ghn fee: %w", err)
	}
	if out.Code != http.StatusOK {
		return decimal.Zero, fmt.Errorf("ghn fee: code %d: %s", out.Code, out.Message)
	}
	return decimal.NewFromInt(out.Data.Total), nil
}
