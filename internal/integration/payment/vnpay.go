package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"anime-shop/internal/domain"
)

type VnPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

var vnLoc = time.FixedZone("ICT", 7*3600)

type VnPay struct {
	cfg VnPayConfig
	now func() time.Time
}

func NewVnPay(cfg VnPayConfig) *VnPay { return &VnPay{cfg: cfg, now: time.Now} }

func (v *VnPay) Method() domain.PaymentMethod { return domain.PaymentVnPay }

func (v *VnPay) CreatePaymentURL(_ context.Context, req Request) (string, error) {
	now := v.now().In(vnLoc)
	ip := req.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    v.cfg.TmnCode,
		"vnp_Amount":     req.Amount.Mul(decimal.NewFromInt(100)).StringFixed(0),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.OrderCode,
		"vnp_OrderInfo":  req.Note,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  v.cfg.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format("20060102150405"),
	}
	query := canonicalQuery(params)
	return v.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + signSHA512(query, v.cfg.HashSecret), nil
}

// VerifyCallback params 为已解码的 vnp_* 参数
func (v *VnPay) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	got := params["vnp_SecureHash"]
	want := signSHA512(canonicalQuery(params), v.cfg.HashSecret)
	if got == "" || !hmac.Equal([]byte(strings.ToUpper(got)), []byte(want)) {
		return nil, ErrInvalidSignature
	}
	amount, err := decimal.NewFromString(params["vnp_Amount"])
	if err != nil {
		amount = decimal.Zero
	}
	ok := params["vnp_ResponseCode"] == "00" &&
		(params["vnp_TransactionStatus"] == "" || params["vnp_TransactionStatus"] == "00")
	return &CallbackResult{
		OrderCode:      params["vnp_TxnRef"],
		TransactionRef: params["vnp_TransactionNo"],
		Amount:         amount.Div(decimal.NewFromInt(100)),
		Success:        ok,
		Message:        "vnpay response " + params["vnp_ResponseCode"],
	}, nil
}

// canonicalQuery 按 key 升序，跳过空值与签名字段，空格编码为 +
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, val := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || val == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}

func signSHA512(data, secret string) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(data))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
