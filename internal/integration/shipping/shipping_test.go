package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/integration/httpx"
)

func TestFlatFee(t *testing.T) {
	f := &Flat{BaseFee: decimal.NewFromInt(30000), PerKg: decimal.NewFromInt(5000), FreeThreshold: decimal.NewFromInt(1000000)}
	ctx := context.Background()

	fee, err := f.CalculateFee(ctx, FeeRequest{WeightGrams: 800, Subtotal: decimal.NewFromInt(200000)})
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(30000)))

	fee, _ = f.CalculateFee(ctx, FeeRequest{WeightGrams: 2500, Subtotal: decimal.NewFromInt(200000)})
	assert.True(t, fee.Equal(decimal.NewFromInt(40000)))

	fee, _ = f.CalculateFee(ctx, FeeRequest{WeightGrams: 2500, Subtotal: decimal.NewFromInt(1000000)})
	assert.True(t, fee.IsZero())
}

func TestRegistryDefaultsToFirstProvider(t *testing.T) {
	r := NewRegistry(&Flat{}, NewGHN(GHNConfig{}, httpx.New(httpx.Options{})))
	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, ProviderFlat, p.Name())

	p, err = r.Get(ProviderGHN)
	require.NoError(t, err)
	assert.Equal(t, ProviderGHN, p.Name())

	_, err = r.Get("ViettelPost")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestGHNFee(t *testing.T) {
	var got ghnFeeReq
	var token string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		token = r.Header.Get("Token")
		assert.Equal(t, "/shiip/public-api/v2/shipping-order/fee", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":200,"message":"Success","data":{"total":36500}}`))
	}))
	defer srv.Close()

	g := NewGHN(GHNConfig{BaseURL: srv.URL + "/", Token: "tk", ShopID: 1, FromDistrictID: 1442},
		httpx.New(httpx.Options{Name: "ghn", MaxRetries: 2, InitialInterval: time.Millisecond}))
	fee, err := g.CalculateFee(context.Background(), FeeRequest{ToDistrictID: 1452, ToWardCode: "21012", WeightGrams: 700, Subtotal: decimal.NewFromInt(450000)})
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(36500)))
	assert.Equal(t, "tk", token)
	assert.Equal(t, 1452, got.ToDistrictID)
	assert.Equal(t, int64(450000), got.InsuranceValue)
	assert.Equal(t, 2, calls)
}

func TestGHNRequiresDestination(t *testing.T) {
	g := NewGHN(GHNConfig{}, httpx.New(httpx.Options{}))
	_, err := g.CalculateFee(context.Background(), FeeRequest{WeightGrams: 100})
	assert.Error(t, err)
}
