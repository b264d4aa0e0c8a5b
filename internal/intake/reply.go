package intake

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// reply holds the fields of an intake response that drive reconciliation.
type reply struct {
	// Success is nil when the body carries no success flag.
	Success *bool
	Ack     string
	Message string
	Err     string
}

func (r reply) accepted() bool {
	if r.Success != nil && !*r.Success {
		return false
	}
	return r.Ack == Acknowledgement
}

func (r reply) message() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Err
}

// parseReply reads the success flag, message fields and acknowledgement.
// The acknowledgement is accepted either at the top level or nested under
// "data".
func parseReply(body []byte) (reply, error) {
	var r reply
	if len(body) == 0 {
		return r, errors.New("empty body")
	}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return r, errors.New("body is not an object")
	}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "success":
			if d.Next() != jx.Bool {
				return d.Skip()
			}
			v, err := d.Bool()
			if err != nil {
				return err
			}
			r.Success = &v
			return nil
		case "exito":
			return decodeString(d, &r.Ack)
		case "message":
			return decodeString(d, &r.Message)
		case "error":
			return decodeString(d, &r.Err)
		case "data":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				switch string(key) {
				case "exito":
					return decodeString(d, &r.Ack)
				case "message":
					if r.Message != "" {
						return d.Skip()
					}
					return decodeString(d, &r.Message)
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return r, errors.Wrap(err, "decode")
	}
	return r, nil
}

func decodeString(d *jx.Decoder, dst *string) error {
	if d.Next() != jx.String {
		return d.Skip()
	}
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
