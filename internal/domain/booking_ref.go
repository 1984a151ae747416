package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewBookingRef returns "BK" + the last 8 digits of the unix millisecond clock
// + 6 random hex characters.
func NewBookingRef(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return "BK" + timeDigits(now) + strings.ToUpper(hex.EncodeToString(buf))
}

// NewConfirmationNumber returns "SB" + 8 time digits + 4 random base36 characters.
func NewConfirmationNumber(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("SB")
	sb.WriteString(timeDigits(now))
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return strings.ToUpper(sb.String())
}

func timeDigits(now time.Time) string {
	ms := fmt.Sprintf("%08d", now.UnixMilli())
	return ms[len(ms)-8:]
}
