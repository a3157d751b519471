package wagon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosves/bosves-api/internal/validation"
)

func validPayload() Payload {
	return Payload{Date: "31.01.2024", Time: "10:15", Nvag: "52345678", Npp: 1, Vesy: 2, Tn: 7001378}
}

func TestValidatePayload_Normalises(t *testing.T) {
	out := ValidatePayload(validPayload(), "data")

	v, ok := out.(validation.Valid[Payload])
	require.True(t, ok, "expected Valid, got %#v", out)
	assert.Equal(t, "2024-01-31", v.Value.Date)
	assert.Equal(t, "10:15:00", v.Value.Time)
	assert.Equal(t, "52345678", v.Value.Nvag)
}

func TestValidatePayload_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *Payload)
		wantParam string
	}{
		{name: "missing date", mutate: func(p *Payload) { p.Date = "" }, wantParam: "data.dt"},
		{name: "bad date", mutate: func(p *Payload) { p.Date = "2024/01/31" }, wantParam: "data.dt"},
		{name: "bad time", mutate: func(p *Payload) { p.Time = "noon" }, wantParam: "data.vr"},
		{name: "date with stray fraction", mutate: func(p *Payload) { p.Date = "31.01.2024 10:15:00.42" }, wantParam: "data.dt"},
		{name: "time with fraction", mutate: func(p *Payload) { p.Time = "10:15:00.999" }, wantParam: "data.vr"},
		{name: "non numeric wagon", mutate: func(p *Payload) { p.Nvag = "5234567A" }, wantParam: "data.nvag"},
		{name: "short wagon", mutate: func(p *Payload) { p.Nvag = "1234" }, wantParam: "data.nvag"},
		{name: "zero npp", mutate: func(p *Payload) { p.Npp = 0 }, wantParam: "data.npp"},
		{name: "negative scale", mutate: func(p *Payload) { p.Vesy = -1 }, wantParam: "data.vesy"},
		{name: "zero train", mutate: func(p *Payload) { p.Tn = 0 }, wantParam: "data.tn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)

			inv, bad := validation.AsInvalid[Payload](ValidatePayload(p, "data"))
			require.True(t, bad)
			assert.Equal(t, tt.wantParam, inv.Parameter)
			assert.NotEmpty(t, inv.UserMessage)
		})
	}
}

func TestNormaliseDateTime(t *testing.T) {
	day, _, ok := normaliseDate("31.01.2024 10:15:00", "dt")
	require.True(t, ok)
	assert.Equal(t, "2024-01-31", day)

	_, inv, ok := normaliseDate("2024-01-31T10:15:00,5", "dt")
	require.False(t, ok)
	assert.Equal(t, "dt", inv.Parameter)
	assert.Equal(t, "2024-01-31T10:15:00,5", inv.RawInput)
	assert.Equal(t, "invalid date format", inv.UserMessage)

	clock, _, ok := normaliseTime(" 07:05 ", "vr")
	require.True(t, ok)
	assert.Equal(t, "07:05:00", clock)

	_, inv, ok = normaliseTime("", "vr")
	require.False(t, ok)
	assert.Equal(t, "vr", inv.Parameter)
	assert.Equal(t, "vr is not specified", inv.UserMessage)
}

func TestValidatePatch(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		inv, bad := validation.AsInvalid[Patch](ValidatePatch(Patch{}, "data"))
		require.True(t, bad)
		assert.Equal(t, "no fields to update", inv.UserMessage)
	})

	t.Run("normalises set fields", func(t *testing.T) {
		dt := "2024-01-31T23:59:59"
		vr := "07:05"
		out := ValidatePatch(Patch{Date: &dt, Time: &vr}, "data")

		v, ok := out.(validation.Valid[Patch])
		require.True(t, ok, "expected Valid, got %#v", out)
		assert.Equal(t, "2024-01-31", *v.Value.Date)
		assert.Equal(t, "07:05:00", *v.Value.Time)
		assert.Nil(t, v.Value.Nvag)
	})

	t.Run("zero npp is rejected", func(t *testing.T) {
		npp := 0
		inv, bad := validation.AsInvalid[Patch](ValidatePatch(Patch{Npp: &npp}, "data"))
		require.True(t, bad)
		assert.Equal(t, "data.npp", inv.Parameter)
	})

	t.Run("zero scale is allowed", func(t *testing.T) {
		vesy := int16(0)
		_, bad := validation.AsInvalid[Patch](ValidatePatch(Patch{Vesy: &vesy}, "data"))
		assert.False(t, bad)
	})
}

func TestPatch_Apply(t *testing.T) {
	w := Wagon{Date: "2024-01-31", Time: "10:00:00", Nvag: "52345678", Npp: 1, Vesy: 2, Tn: 9}
	nvag := "52345679"
	tn := 10
	Patch{Nvag: &nvag, Tn: &tn}.Apply(&w)

	assert.Equal(t, "52345679", w.Nvag)
	assert.Equal(t, 10, w.Tn)
	assert.Equal(t, 1, w.Npp)
}
