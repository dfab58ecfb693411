package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		pct    string
		want   string
	}{
		{"vat 11 percent", "12000000", "11", "1320000"},
		{"rounds half up", "0.05", "50", "0.03"},
		{"zero percent", "999.99", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(MustMoney(tt.amount), MustMoney(tt.pct))
			assert.True(t, MustMoney(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRatio(t *testing.T) {
	assert.True(t, MustMoney("14.17").Equal(Ratio(MustMoney("1700000"), MustMoney("12000000"))))
	assert.True(t, Zero().Equal(Ratio(MustMoney("5"), Zero())))
}

func TestExtendAndMaxZero(t *testing.T) {
	assert.True(t, MustMoney("8500000").Equal(Extend(MustMoney("85000"), 100)))
	assert.True(t, Zero().Equal(MaxZero(MustMoney("-0.01"))))
	assert.True(t, MustMoney("3").Equal(MaxZero(MustMoney("3"))))
}
