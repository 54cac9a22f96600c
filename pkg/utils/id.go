package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewID() string { return uuid.NewString() }

// NewOrderCode 生成对外展示的订单号，例如 ORD-20250102-1A2B3C4D
func NewOrderCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
