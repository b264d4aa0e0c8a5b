package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

func decodePayload(raw []byte) ([]ProductRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	d := jx.DecodeBytes(raw)
	switch tt := d.Next(); tt {
	case jx.Null:
		return nil, d.Null()
	case jx.Object:
		var ref ProductRef
		if err := ref.decode(d); err != nil {
			return nil, err
		}
		return []ProductRef{ref}, nil
	case jx.Array:
		var refs []ProductRef
		err := d.Arr(func(d *jx.Decoder) error {
			var ref ProductRef
			if d.Next() == jx.Null {
				refs = append(refs, ref)
				return d.Null()
			}
			if err := ref.decode(d); err != nil {
				return err
			}
			refs = append(refs, ref)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return refs, nil
	default:
		return nil, errors.Errorf("unexpected payload type %v", tt)
	}
}

func (p *ProductRef) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "oldId":
			p.OldID, err = decodeScalar(d)
		case "qty":
			p.Quantity, err = decodeScalar(d)
		case "name":
			p.Name, err = decodeScalar(d)
		case "sections":
			err = decodeList(d, func(d *jx.Decoder) error {
				var s Section
				if err := s.decode(d); err != nil {
					return err
				}
				p.Sections = append(p.Sections, s)
				return nil
			})
		case "items":
			err = decodeList(d, func(d *jx.Decoder) error {
				var s Selection
				if err := s.decode(d); err != nil {
					return err
				}
				p.Items = append(p.Items, s)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

func (s *Section) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id", "sectionId":
			id, err := decodeScalar(d)
			if err != nil {
				return err
			}
			if s.ID == "" {
				s.ID = id
			}
			return nil
		case "items":
			return decodeList(d, func(d *jx.Decoder) error {
				var it Selection
				if err := it.decode(d); err != nil {
					return err
				}
				s.Items = append(s.Items, it)
				return nil
			})
		default:
			return d.Skip()
		}
	})
}

func (s *Selection) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			s.ID, err = decodeScalar(d)
		case "qty":
			s.Quantity, err = decodeScalar(d)
		case "type":
			s.Role, err = decodeScalar(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

// decodeList decodes an array of objects, treating null as empty and
// skipping null elements.
func decodeList(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Arr(func(d *jx.Decoder) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		return f(d)
	})
}

// decodeScalar reads a string or number as its textual form. Null and
// booleans yield an empty string.
func decodeScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		raw, err := d.Raw()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}
