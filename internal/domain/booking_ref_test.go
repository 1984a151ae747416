package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBookingRef(t *testing.T) {
	now := time.UnixMilli(1767225600123)

	ref := NewBookingRef(now)
	assert.Regexp(t, regexp.MustCompile(`^BK25600123[0-9A-F]{6}$`), ref)

	conf := NewConfirmationNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^SB25600123[0-9A-Z]{4}$`), conf)

	assert.NotEqual(t, NewBookingRef(now), NewBookingRef(now))
}
