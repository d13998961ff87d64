package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNarration(t *testing.T) {
	got, err := BuildNarration(NarrationInput{
		ExpenseDetails: "Cloud hosting",
		PeriodStart:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Vendor:         "AWS",
		Product:        "iCare Life",
		Segment:        "Education",
		Country:        "India",
	})
	require.NoError(t, err)

	want := "Cloud hosting for the period 01-Apr-2026 to 30-Apr-2026 purchased from AWS for product iCare Life under Business Segment Education, India"
	assert.Equal(t, want, got)
}

func TestBuildNarrationMissingFields(t *testing.T) {
	base := NarrationInput{
		ExpenseDetails: "Cloud hosting",
		PeriodStart:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Vendor:         "AWS",
		Product:        "iCare Life",
		Segment:        "Education",
		Country:        "India",
	}

	for name, mutate := range map[string]func(*NarrationInput){
		"expense details": func(in *NarrationInput) { in.ExpenseDetails = "" },
		"vendor":          func(in *NarrationInput) { in.Vendor = "" },
		"product":         func(in *NarrationInput) { in.Product = "" },
		"segment":         func(in *NarrationInput) { in.Segment = "" },
		"country":         func(in *NarrationInput) { in.Country = "" },
		"period":          func(in *NarrationInput) { in.PeriodEnd = time.Time{} },
	} {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := BuildNarration(in)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}
