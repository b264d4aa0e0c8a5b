package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() Document {
	return Document{
		SaleChannel:     "WEB",
		OrderNumber:     "1234",
		Tag:             "aB3dE6",
		Date:            "05/03/2024",
		Time:            "09:07:01",
		Restaurant:      "12",
		CustomerPhone:   "5555",
		CustomerName:    "Ana",
		CustomerAddress: "Zona 10",
		InvoiceNIT:      DefaultInvoiceNIT,
		InvoiceName:     DefaultInvoiceName,
		Total:           dec("35.5"),
		Lines: []Line{
			{Number: 1, PLU: "900", Quantity: 2, Description: "PAPAS", Amount: dec("25"), Kind: KindNormal, Source: "menu"},
			{
				Number: 2, PLU: "7001", Quantity: 1, Description: "MIXTO", Amount: dec("10.5"), Kind: KindMixto, Source: "menu",
				Blend: []BlendComponent{{Role: "FRI", Quantity: "2", PLU: "201", Description: "PAPAS"}},
			},
		},
		Channel:     "WEB",
		Coordinates: DefaultCoordinates,
	}
}

func TestDocument_Encode(t *testing.T) {
	data, err := testDocument().MarshalJSON()
	require.NoError(t, err)
	require.True(t, jx.Valid(data))

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "35.50", got["total_orden"])
	assert.Equal(t, "35.50", got["total_efectivo"])
	assert.Equal(t, "0", got["total_credito"])
	assert.Equal(t, "2", got["detalle_lineas"])
	assert.Equal(t, "CF", got["nit"])
	assert.Equal(t, "CONSUMIDOR FINAL", got["nit_nombre"])
	assert.Equal(t, DefaultCoordinates, got["Direccion_Coordenadas"])

	visanet, ok := got["visanet"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, visanet, len(visanetFields))
	for k, v := range visanet {
		assert.Equal(t, "", v, k)
	}

	detail, ok := got["detalle"].([]any)
	require.True(t, ok)
	require.Len(t, detail, 2)

	normal := detail[0].(map[string]any)
	assert.Equal(t, "1", normal["linea_detalle"])
	assert.Equal(t, "2", normal["cantidad"])
	assert.Equal(t, "25.00", normal["monto"])
	assert.Equal(t, "NORMAL", normal["tipo"])
	assert.Equal(t, "N", normal["modificadores"])
	assert.Equal(t, []any{}, normal["mixto_opciones"])
	assert.NotContains(t, normal, "modificadores_opciones")

	mixto := detail[1].(map[string]any)
	assert.Equal(t, "10.50", mixto["monto"])
	assert.Equal(t, "MIXTO", mixto["tipo"])
	assert.Equal(t, []any{}, mixto["modificadores_opciones"])
	assert.Equal(t, []any{map[string]any{
		"mixto_opcion":      "FRI",
		"mixto_cantidad":    "2",
		"mixto_plu":         "201",
		"mixto_descripcion": "PAPAS",
	}}, mixto["mixto_opciones"])
}

func TestEncodeDocuments(t *testing.T) {
	var e jx.Encoder
	EncodeDocuments(&e, []Document{testDocument()})

	var got []map[string]any
	require.NoError(t, json.Unmarshal(e.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "1234", got[0]["orden"])
}

func TestNewTag(t *testing.T) {
	for range 50 {
		tag := NewTag()
		require.Len(t, tag, TagLength)
		for _, r := range tag {
			assert.Contains(t, tagAlphabet, string(r))
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 9, 7, 1, 0, time.UTC)
	assert.Equal(t, "05/03/2024", FormatDate(ts))
	assert.Equal(t, "09:07:01", FormatTime(ts))
}

func TestNormalizeRole(t *testing.T) {
	for _, tt := range []struct {
		group string
		want  string
	}{
		{"FRITOS", "FRI"},
		{"bebidas", "BEB"},
		{"POSTRES", "POS"},
		{"SANDWICH", "SDW"},
		{"PREMIUM", "OTR"},
		{"", "OTR"},
		{"  ", "OTR"},
		{"ensaladas", "ENS"},
		{"ab", "AB"},
	} {
		t.Run(tt.group, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRole(tt.group))
		})
	}
}
