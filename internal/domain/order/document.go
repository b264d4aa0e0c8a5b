package order

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Document defaults.
const (
	DefaultChannel     = "WEB"
	DefaultInvoiceNIT  = "CF"
	DefaultInvoiceName = "CONSUMIDOR FINAL"
	DefaultCoordinates = "14.59916353464088,-90.57646230799594"

	noCredit = "0"
)

// Document is the order as submitted to the intake system.
type Document struct {
	SaleChannel     string
	OrderNumber     string
	Tag             string
	Date            string
	Time            string
	Restaurant      string
	CustomerPhone   string
	CustomerName    string
	CustomerAddress string
	InvoiceNIT      string
	InvoiceName     string
	Total           decimal.Decimal
	Observations    string
	Lines           []Line
	Channel         string
	Coordinates     string
}

// visanetFields is the card payment block. Card capture happens elsewhere, so
// every field is sent empty.
var visanetFields = []string{
	"visanet_total",
	"visanet_system_trace",
	"visanet_hora",
	"visanet_fecha",
	"visanet_reference_number",
	"visanet_authidresponse",
	"visanet_terminal",
	"visanet_nombre",
	"visanet_tarjeta",
	"visanet_vencimiento",
}

// Encode writes the document in the intake wire format.
func (d Document) Encode(e *jx.Encoder) {
	total := d.Total.StringFixed(2)

	e.ObjStart()
	e.FieldStart("forma_venta")
	e.Str(d.SaleChannel)
	e.FieldStart("orden")
	e.Str(d.OrderNumber)
	e.FieldStart("tag")
	e.Str(d.Tag)
	e.FieldStart("fecha")
	e.Str(d.Date)
	e.FieldStart("hora")
	e.Str(d.Time)
	e.FieldStart("restaurante")
	e.Str(d.Restaurant)
	e.FieldStart("cliente_telefono")
	e.Str(d.CustomerPhone)
	e.FieldStart("cliente_nombre")
	e.Str(d.CustomerName)
	e.FieldStart("cliente_direccion")
	e.Str(d.CustomerAddress)
	e.FieldStart("nit")
	e.Str(d.InvoiceNIT)
	e.FieldStart("nit_nombre")
	e.Str(d.InvoiceName)
	e.FieldStart("total_efectivo")
	e.Str(total)
	e.FieldStart("total_credito")
	e.Str(noCredit)
	e.FieldStart("total_orden")
	e.Str(total)
	e.FieldStart("observaciones")
	e.Str(d.Observations)

	e.FieldStart("detalle")
	e.ArrStart()
	for _, l := range d.Lines {
		l.Encode(e)
	}
	e.ArrEnd()

	e.FieldStart("visanet")
	e.ObjStart()
	for _, f := range visanetFields {
		e.FieldStart(f)
		e.Str("")
	}
	e.ObjEnd()

	e.FieldStart("detalle_lineas")
	e.Str(strconv.Itoa(len(d.Lines)))
	e.FieldStart("channel")
	e.Str(d.Channel)
	e.FieldStart("Direccion_Coordenadas")
	e.Str(d.Coordinates)
	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	d.Encode(e)
	return append([]byte(nil), e.Bytes()...), nil
}

// EncodeDocuments writes docs as a JSON array.
func EncodeDocuments(e *jx.Encoder, docs []Document) {
	e.ArrStart()
	for _, d := range docs {
		d.Encode(e)
	}
	e.ArrEnd()
}

// Encode writes one detail line.
func (l Line) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("linea_detalle")
	e.Str(strconv.Itoa(l.Number))
	e.FieldStart("plu")
	e.Str(l.PLU)
	e.FieldStart("cantidad")
	e.Str(strconv.Itoa(l.Quantity))
	e.FieldStart("descripcion")
	e.Str(l.Description)
	e.FieldStart("monto")
	e.Str(l.Amount.StringFixed(2))
	e.FieldStart("tipo")
	e.Str(string(l.Kind))
	e.FieldStart("modificadores")
	e.Str(noModifiers)
	if l.Kind == KindMixto {
		e.FieldStart("modificadores_opciones")
		e.ArrEmpty()
	}

	e.FieldStart("mixto_opciones")
	e.ArrStart()
	for _, c := range l.Blend {
		e.ObjStart()
		e.FieldStart("mixto_opcion")
		e.Str(c.Role)
		e.FieldStart("mixto_cantidad")
		e.Str(c.Quantity)
		e.FieldStart("mixto_plu")
		e.Str(c.PLU)
		e.FieldStart("mixto_descripcion")
		e.Str(c.Description)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("source")
	e.Str(l.Source)
	e.ObjEnd()
}

const tagAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TagLength is the length of an order tag.
const TagLength = 6

// NewTag returns a random alphanumeric order tag.
func NewTag() string {
	b := make([]byte, TagLength)
	for i := range b {
		b[i] = tagAlphabet[rand.IntN(len(tagAlphabet))]
	}
	return string(b)
}

// FormatDate formats t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatTime formats t as HH:MM:SS.
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}
