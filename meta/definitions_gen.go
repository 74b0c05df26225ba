package meta

import (
	"io"
	"strings"

	enc "github.com/named-data/ndnd/std/encoding"
)

// ContentMetaInfoEncoder holds the intermediate state needed to encode a
// ContentMetaInfo: field lengths computed once in Init, then reused by
// EncodeInto so the final buffer can be allocated in a single pass.
type ContentMetaInfoEncoder struct {
	Length uint

	contentTypeLen uint
	otherLen       uint
}

func (encoder *ContentMetaInfoEncoder) Init(value *ContentMetaInfo) {
	encoder.contentTypeLen = uint(len(value.ContentType))
	encoder.otherLen = uint(len(value.Other))

	l := uint(0)
	l += 1 + uint(enc.TLNum(encoder.contentTypeLen).EncodingLength()) + encoder.contentTypeLen
	l += 1 + uint(1+enc.Nat(value.Timestamp).EncodingLength())
	if value.HasSegments {
		l += 1 + 1
	}
	if value.Other != nil {
		l += 1 + uint(enc.TLNum(encoder.otherLen).EncodingLength()) + encoder.otherLen
	}
	encoder.Length = l
}

func (encoder *ContentMetaInfoEncoder) EncodeInto(value *ContentMetaInfo, buf enc.Buffer) {
	pos := 0

	buf[pos] = byte(0xc8)
	pos += 1
	pos += enc.TLNum(encoder.contentTypeLen).EncodeInto(buf[pos:])
	copy(buf[pos:], value.ContentType)
	pos += int(encoder.contentTypeLen)

	buf[pos] = byte(0xca)
	pos += 1
	buf[pos] = byte(enc.Nat(value.Timestamp).EncodingLength())
	written := int(buf[pos])
	enc.Nat(value.Timestamp).EncodeInto(buf[pos+1:])
	pos += 1 + written

	if value.HasSegments {
		buf[pos] = byte(0xcc)
		buf[pos+1] = byte(0)
		pos += 2
	}

	if value.Other != nil {
		buf[pos] = byte(0xce)
		pos += 1
		pos += enc.TLNum(encoder.otherLen).EncodeInto(buf[pos:])
		copy(buf[pos:], value.Other)
		pos += int(encoder.otherLen)
	}
}

func (value *ContentMetaInfo) Encode() enc.Wire {
	encoder := ContentMetaInfoEncoder{}
	encoder.Init(value)
	wire := make(enc.Wire, 1)
	wire[0] = make([]byte, encoder.Length)
	encoder.EncodeInto(value, wire[0])
	return wire
}

func (value *ContentMetaInfo) Bytes() []byte {
	return value.Encode().Join()
}

// ParseContentMetaInfo reads a ContentMetaInfo from reader. Unrecognized
// critical fields (odd type number, or type number <= 31) cause a parse
// error unless ignoreCritical is set.
func ParseContentMetaInfo(reader enc.WireView, ignoreCritical bool) (*ContentMetaInfo, error) {
	value := &ContentMetaInfo{}
	var err error

	for {
		if reader.Pos() >= reader.Length() {
			break
		}
		typ, err1 := reader.ReadTLNum()
		if err1 != nil {
			return nil, enc.ErrFailToParse{TypeNum: 0, Err: err1}
		}
		l, err2 := reader.ReadTLNum()
		if err2 != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err2}
		}

		switch typ {
		case 0xc8:
			var builder strings.Builder
			_, err = reader.CopyN(&builder, int(l))
			if err == nil {
				value.ContentType = builder.String()
			}
		case 0xca:
			value.Timestamp, err = readNatural(&reader, int(l))
		case 0xcc:
			value.HasSegments = true
			err = reader.Skip(int(l))
		case 0xce:
			value.Other = make([]byte, l)
			_, err = reader.ReadFull(value.Other)
		default:
			if !ignoreCritical && isCriticalType(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			err = reader.Skip(int(l))
		}
		if err != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err}
		}
	}

	return value, nil
}

// DelegationEncoder is nested inside DelegationSetEncoder; a Delegation
// never appears at the top level of a wire packet on its own.
type DelegationEncoder struct {
	Length uint

	nameLen uint
}

func (encoder *DelegationEncoder) Init(value *Delegation) {
	if value.Name != nil {
		encoder.nameLen = uint(value.Name.EncodingLength())
	}

	l := uint(0)
	l += 1 + uint(1+enc.Nat(value.Preference).EncodingLength())
	if value.Name != nil {
		l += 1 + uint(enc.TLNum(encoder.nameLen).EncodingLength()) + encoder.nameLen
	}
	encoder.Length = l
}

func (encoder *DelegationEncoder) EncodeInto(value *Delegation, buf enc.Buffer) {
	pos := 0

	buf[pos] = byte(0x1e)
	pos += 1
	buf[pos] = byte(enc.Nat(value.Preference).EncodingLength())
	written := int(buf[pos])
	enc.Nat(value.Preference).EncodeInto(buf[pos+1:])
	pos += 1 + written

	if value.Name != nil {
		buf[pos] = byte(0x07)
		pos += 1
		pos += enc.TLNum(encoder.nameLen).EncodeInto(buf[pos:])
		value.Name.EncodeInto(buf[pos:])
		pos += int(encoder.nameLen)
	}
}

func parseDelegation(reader enc.WireView, ignoreCritical bool) (*Delegation, error) {
	value := &Delegation{}
	var err error

	for {
		if reader.Pos() >= reader.Length() {
			break
		}
		typ, err1 := reader.ReadTLNum()
		if err1 != nil {
			return nil, enc.ErrFailToParse{TypeNum: 0, Err: err1}
		}
		l, err2 := reader.ReadTLNum()
		if err2 != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err2}
		}

		switch typ {
		case 0x1e:
			value.Preference, err = readNatural(&reader, int(l))
		case 0x07:
			sub := reader.Delegate(int(l))
			value.Name, err = sub.ReadName()
		default:
			if !ignoreCritical && isCriticalType(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			err = reader.Skip(int(l))
		}
		if err != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err}
		}
	}

	return value, nil
}

type DelegationSetEncoder struct {
	Length uint

	subEncoders []DelegationEncoder
}

func (encoder *DelegationSetEncoder) Init(value *DelegationSet) {
	encoder.subEncoders = make([]DelegationEncoder, len(value.Delegations))
	l := uint(0)
	for i, d := range value.Delegations {
		encoder.subEncoders[i].Init(d)
		l += 1 + uint(enc.TLNum(encoder.subEncoders[i].Length).EncodingLength()) + encoder.subEncoders[i].Length
	}
	encoder.Length = l
}

func (encoder *DelegationSetEncoder) EncodeInto(value *DelegationSet, buf enc.Buffer) {
	pos := 0
	for i, d := range value.Delegations {
		sub := &encoder.subEncoders[i]
		buf[pos] = byte(0x1f)
		pos += 1
		pos += enc.TLNum(sub.Length).EncodeInto(buf[pos:])
		sub.EncodeInto(d, buf[pos:])
		pos += int(sub.Length)
	}
}

func (value *DelegationSet) Encode() enc.Wire {
	encoder := DelegationSetEncoder{}
	encoder.Init(value)
	wire := make(enc.Wire, 1)
	wire[0] = make([]byte, encoder.Length)
	encoder.EncodeInto(value, wire[0])
	return wire
}

func (value *DelegationSet) Bytes() []byte {
	return value.Encode().Join()
}

// ParseDelegationSet reads a sequence of Delegation TLVs (type 0x1f) from
// reader, in the order they appear on the wire.
func ParseDelegationSet(reader enc.WireView, ignoreCritical bool) (*DelegationSet, error) {
	value := &DelegationSet{}
	var err error

	for {
		if reader.Pos() >= reader.Length() {
			break
		}
		typ, err1 := reader.ReadTLNum()
		if err1 != nil {
			return nil, enc.ErrFailToParse{TypeNum: 0, Err: err1}
		}
		l, err2 := reader.ReadTLNum()
		if err2 != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err2}
		}

		switch typ {
		case 0x1f:
			d, derr := parseDelegation(reader.Delegate(int(l)), ignoreCritical)
			if derr != nil {
				return nil, derr
			}
			value.Delegations = append(value.Delegations, d)
		default:
			if !ignoreCritical && isCriticalType(typ) {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
			err = reader.Skip(int(l))
		}
		if err != nil {
			return nil, enc.ErrFailToParse{TypeNum: typ, Err: err}
		}
	}

	return value, nil
}

// isCriticalType reports whether an unrecognized field of this type number
// must abort parsing rather than be skipped, per the NDN TLV evolvability
// rule: types <= 31 and odd types are critical.
func isCriticalType(typ enc.TLNum) bool {
	return typ <= 31 || (typ&1) == 1
}

// readNatural reads an l-byte big-endian natural number field, the wire
// representation used by all //+field:natural values in this package.
func readNatural(reader *enc.WireView, l int) (uint64, error) {
	val := uint64(0)
	for i := 0; i < l; i++ {
		x, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		val = val<<8 | uint64(x)
	}
	return val, nil
}
