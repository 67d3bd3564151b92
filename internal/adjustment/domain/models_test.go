package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestDecodeExclude(t *testing.T) {
	row := GuardianFeeAdjustment{CategoryName: "Sports", AdjustmentType: AdjustmentExclude}
	adj, err := row.Decode()
	require.NoError(t, err)
	require.Equal(t, Exclude{CategoryName: "Sports"}, adj)
	require.Equal(t, "Sports", adj.Category())
}

func TestDecodeCustomAmount(t *testing.T) {
	row := GuardianFeeAdjustment{
		CategoryName:   "Tuition",
		AdjustmentType: AdjustmentCustomAmount,
		CustomAmount:   int64Ptr(50000),
	}
	adj, err := row.Decode()
	require.NoError(t, err)
	require.Equal(t, CustomAmount{CategoryName: "Tuition", Amount: 50000}, adj)

	var invalid *InvalidAdjustmentError

	row.CustomAmount = nil
	_, err = row.Decode()
	require.ErrorAs(t, err, &invalid)

	row.CustomAmount = int64Ptr(-1)
	_, err = row.Decode()
	require.ErrorAs(t, err, &invalid)
}

func TestDecodeDiscount(t *testing.T) {
	row := GuardianFeeAdjustment{
		CategoryName:       "Food",
		AdjustmentType:     AdjustmentDiscount,
		DiscountPercentage: float64Ptr(25),
	}
	adj, err := row.Decode()
	require.NoError(t, err)
	require.Equal(t, Discount{CategoryName: "Food", Percentage: 25}, adj)

	var invalid *InvalidAdjustmentError
	for _, pct := range []*float64{nil, float64Ptr(0), float64Ptr(-5), float64Ptr(101)} {
		row.DiscountPercentage = pct
		_, err = row.Decode()
		require.ErrorAs(t, err, &invalid)
	}

	// 100% is a legal full waiver.
	row.DiscountPercentage = float64Ptr(100)
	_, err = row.Decode()
	require.NoError(t, err)
}

func TestDecodeUnknownType(t *testing.T) {
	row := GuardianFeeAdjustment{CategoryName: "Food", AdjustmentType: "surcharge"}
	_, err := row.Decode()
	var invalid *InvalidAdjustmentError
	require.ErrorAs(t, err, &invalid)
}
