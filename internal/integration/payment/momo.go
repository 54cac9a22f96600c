package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"anime-shop/internal/domain"
	"anime-shop/internal/integration/httpx"
	"anime-shop/pkg/utils"
)

type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IpnURL      string
}

type Momo struct {
	cfg    MomoConfig
	client *httpx.Client
}

func NewMomo(cfg MomoConfig, client *httpx.Client) *Momo {
	return &Momo{cfg: cfg, client: client}
}

func (m *Momo) Method() domain.PaymentMethod { return domain.PaymentMomo }

type momoCreateResp struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

func (m *Momo) CreatePaymentURL(ctx context.Context, req Request) (string, error) {
	requestID := utils.NewID()
	amount := req.Amount.StringFixed(0)
	const requestType = "captureWallet"
	raw := joinKV([][2]string{
		{"accessKey", m.cfg.AccessKey},
		{"amount", amount},
		{"extraData", ""},
		{"ipnUrl", m.cfg.IpnURL},
		{"orderId", req.OrderCode},
		{"orderInfo", req.Note},
		{"partnerCode", m.cfg.PartnerCode},
		{"redirectUrl", m.cfg.RedirectURL},
		{"requestId", requestID},
		{"requestType", requestType},
	})
	body := map[string]any{
		"partnerCode": m.cfg.PartnerCode,
		"accessKey":   m.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     req.OrderCode,
		"orderInfo":   req.Note,
		"redirectUrl": m.cfg.RedirectURL,
		"ipnUrl":      m.cfg.IpnURL,
		"requestType": requestType,
		"extraData":   "",
		"signature":   signSHA256(raw, m.cfg.SecretKey),
		"lang":        "vi",
	}
	var out momoCreateResp
	if err := m.client.DoJSON(ctx, http.MethodPost, m.cfg.Endpoint, nil, body, &out); err != nil {
		return "", fmt.Errorf("momo create: %w", err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		return "", fmt.Errorf("momo create: result %d: %s", out.ResultCode, out.Message)
	}
	return out.PayURL, nil
}

// VerifyCallback IPN 的字段（全部转成字符串）
func (m *Momo) VerifyCallback(p map[string]string) (*CallbackResult, error) {
	raw := joinKV([][2]string{
		{"accessKey", m.cfg.AccessKey},
		{"amount", p["amount"]},
		{"extraData", p["extraData"]},
		{"message", p["message"]},
		{"orderId", p["orderId"]},
		{"orderInfo", p["orderInfo"]},
		{"orderType", p["orderType"]},
		{"partnerCode", p["partnerCode"]},
		{"payType", p["payType"]},
		{"requestId", p["requestId"]},
		{"responseTime", p["responseTime"]},
		{"resultCode", p["resultCode"]},
		{"transId", p["transId"]},
	})
	if got := p["signature"]; got == "" || !hmac.Equal([]byte(strings.ToLower(got)), []byte(signSHA256(raw, m.cfg.SecretKey))) {
		return nil, ErrInvalidSignature
	}
	amount, err := decimal.NewFromString(p["amount"])
	if err != nil {
		amount = decimal.Zero
	}
	return &CallbackResult{
		OrderCode:      p["orderId"],
		TransactionRef: p["transId"],
		Amount:         amount,
		Success:        p["resultCode"] == "0",
		Message:        p["message"],
	}, nil
}

// joinKV Momo 的签名串按固定字段顺序拼接，不做 URL 编码
func joinKV(kvs [][2]string) string {
	parts := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		parts = append(parts, kv[0]+"="+kv[1])
	}
	return strings.Join(parts, "&")
}

func signSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
