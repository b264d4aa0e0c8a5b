package handler

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/order-intake/internal/pipeline"
)

// Messages returned to clients.
const (
	MessageCreated    = "Orden creada y enviada exitosamente"
	MessageNoBody     = "Body del request es requerido"
	MessageNotAllowed = "Método no permitido. Use POST"
	MessageInternal   = "Error interno del servidor"
)

// saleChannels lists the accepted forma_venta and channel values.
var saleChannels = map[string]bool{
	"APP": true,
	"WEB": true,
}

// DecodeOrderRequest parses an order creation body. Validation of required
// fields is left to pipeline.Request.Validate.
func DecodeOrderRequest(body []byte) (pipeline.Request, error) {
	var req pipeline.Request
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return req, errors.Wrap(pipeline.ErrInvalidRequest, "body must be a JSON object")
	}

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "userId":
			return decodeUserID(d, &req.UserID)
		case "sessionId":
			return decodeStr(d, &req.SessionID)
		case "restaurante":
			return decodeStr(d, &req.Restaurant)
		case "cliente_telefono":
			return decodeStr(d, &req.CustomerPhone)
		case "cliente_nombre":
			return decodeStr(d, &req.CustomerName)
		case "cliente_direccion":
			return decodeStr(d, &req.CustomerAddress)
		case "nit":
			return decodeStr(d, &req.InvoiceNIT)
		case "nit_nombre":
			return decodeStr(d, &req.InvoiceName)
		case "observaciones":
			return decodeStr(d, &req.Observations)
		case "Direccion_Coordenadas":
			return decodeStr(d, &req.Coordinates)
		case "forma_venta":
			return decodeStr(d, &req.SaleChannel)
		case "channel":
			return decodeStr(d, &req.Channel)
		case "cluster":
			return decodeStr(d, &req.Cluster)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, errors.Wrap(pipeline.ErrInvalidRequest, err.Error())
	}

	for name, v := range map[string]string{"forma_venta": req.SaleChannel, "channel": req.Channel} {
		if v != "" && !saleChannels[v] {
			return req, errors.Wrapf(pipeline.ErrInvalidRequest, "%s must be APP or WEB", name)
		}
	}
	return req, nil
}

// decodeStr reads a string field. Numbers are kept in their literal form and
// null leaves dst empty.
func decodeStr(d *jx.Decoder, dst *string) error {
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		*dst = n.String()
		return nil
	case jx.Null:
		return d.Null()
	default:
		return errors.Errorf("unexpected %s", d.Next())
	}
}

func decodeUserID(d *jx.Decoder, dst *int64) error {
	var s string
	if err := decodeStr(d, &s); err != nil {
		return errors.Wrap(err, "userId")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Errorf("userId must be an integer, got %q", s)
	}
	*dst = v
	return nil
}

// EncodeOrderResponse writes the success envelope for res.
func EncodeOrderResponse(e *jx.Encoder, res *pipeline.Result) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str(MessageCreated)
	e.FieldStart("data")
	e.ObjStart()
	e.FieldStart("order")
	res.Document.Encode(e)
	e.FieldStart("coreResponse")
	if len(res.Response) > 0 && jx.Valid(res.Response) {
		e.Raw(res.Response)
	} else {
		e.Null()
	}
	e.FieldStart("workflowId")
	e.Str(res.WorkflowID)
	e.ObjEnd()
	e.ObjEnd()
}

// EncodeError writes {"error": msg}.
func EncodeError(e *jx.Encoder, msg string) {
	e.ObjStart()
	e.FieldStart("error")
	e.Str(msg)
	e.ObjEnd()
}
