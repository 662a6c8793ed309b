package stripeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"":                   "none",
		"active":             "active",
		"trialing":           "trialing",
		"past_due":           "past_due",
		"unpaid":             "past_due",
		"canceled":           "canceled",
		"incomplete_expired": "canceled",
		"incomplete":         "incomplete",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeStatus(in), "input %q", in)
	}
}

func TestValidSessionID(t *testing.T) {
	valid := []string{
		"cs_test_a1B2c3",
		"cs_live_abcdef123456",
	}
	for _, id := range valid {
		assert.True(t, ValidSessionID(id), id)
	}

	invalid := []string{
		"",
		"cs_test_",
		"cs_fake_abc123",
		"sub_abc123",
		"cs_test_abc123; DROP TABLE users",
		"cs_test_abc 123",
	}
	for _, id := range invalid {
		assert.False(t, ValidSessionID(id), id)
	}
}
