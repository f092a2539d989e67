package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := domain.ParsePeriod("2025-06")
	require.NoError(t, err)
	assert.Equal(t, domain.Period{Year: 2025, Month: time.June}, p)
	assert.Equal(t, "2025-06", p.String())

	_, err = domain.ParsePeriod("2025/06")
	assert.Error(t, err)
	_, err = domain.ParsePeriod("")
	assert.Error(t, err)
}

func TestPeriod_Navigation(t *testing.T) {
	dec := domain.MustParsePeriod("2024-12")
	assert.Equal(t, "2025-01", dec.Next().String())
	assert.Equal(t, "2024-11", dec.Prev().String())
	assert.Equal(t, "2023-12", domain.NewPeriod(2024, 0).String())

	assert.True(t, dec.Before(dec.Next()))
	assert.True(t, dec.Next().After(dec))
	assert.Equal(t, 0, dec.Compare(domain.MustParsePeriod("2024-12")))
}

func TestPeriod_Bounds(t *testing.T) {
	feb := domain.MustParsePeriod("2024-02")
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), feb.Start())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), feb.AnchorDate(31))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), feb.AnchorDate(0))
	assert.True(t, feb.Contains(feb.End()))
	assert.False(t, feb.Contains(feb.Next().Start()))
}

func TestPeriodsBetween(t *testing.T) {
	got := domain.PeriodsBetween(domain.MustParsePeriod("2025-11"), domain.MustParsePeriod("2026-02"))
	require.Len(t, got, 4)
	assert.Equal(t, "2025-11", got[0].String())
	assert.Equal(t, "2026-02", got[3].String())

	assert.Empty(t, domain.PeriodsBetween(domain.MustParsePeriod("2026-02"), domain.MustParsePeriod("2025-11")))
}

func TestPeriod_JSON(t *testing.T) {
	type wrapper struct {
		P domain.Period `json:"p"`
	}
	out, err := json.Marshal(wrapper{P: domain.MustParsePeriod("2025-06")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"2025-06"}`, string(out))

	out, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":null}`, string(out))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"p":"2025-07"}`), &w))
	assert.Equal(t, "2025-07", w.P.String())
	assert.Error(t, json.Unmarshal([]byte(`{"p":"July"}`), &w))
}
