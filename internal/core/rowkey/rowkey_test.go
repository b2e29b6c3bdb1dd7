package rowkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	got := Encode(Key{Project: "Acme", SubEntity: "S1", Status: "Open"})
	assert.Equal(t, "Acme_S1 (Open)", got)
}

func TestDecodeRoundTrip(t *testing.T) {
	keys := []Key{
		{Project: "Acme", SubEntity: "S1", Status: "Open"},
		{Project: "Acme_Gen2", SubEntity: "S1", Status: "High"},
		{Project: "Motor (EU)", SubEntity: "SIE 04", Status: "Closed"},
		{Project: "Pump", SubEntity: "X", Status: ""},
		{Project: "电机", SubEntity: "无锡", Status: "中"},
		{Project: "Acme\nPhase 2", SubEntity: "S1", Status: "Open"},
		{Project: "Pump", SubEntity: "Line\r\n2", Status: "On\nhold"},
	}

	for _, k := range keys {
		t.Run(Encode(k), func(t *testing.T) {
			require.NoError(t, k.Validate())

			decoded, err := Decode(Encode(k))
			require.NoError(t, err)
			assert.Equal(t, k, decoded)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no separator", "ProjectOnly"},
		{"no status", "Acme_S1"},
		{"empty sub-entity", "Acme_ (Open)"},
		{"empty project", "_S1 (Open)"},
		{"unbalanced status", "Acme_S1 (Open"},
		{"nested parentheses", "Acme_S1 ((Open))"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedKey))

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.text, decodeErr.Text)
			assert.Contains(t, err.Error(), tt.text)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Key{SubEntity: "S1"}.Validate())
	assert.Error(t, Key{Project: "Acme"}.Validate())
	assert.Error(t, Key{Project: "Acme", SubEntity: "S_1"}.Validate())
	assert.Error(t, Key{Project: "Acme", SubEntity: "S(1)"}.Validate())
	assert.Error(t, Key{Project: "Acme", SubEntity: "S1", Status: "(Open)"}.Validate())
	assert.NoError(t, Key{Project: "Acme_2", SubEntity: "S1", Status: "Open"}.Validate())
}
