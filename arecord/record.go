// Package arecord defines the allocation record
// and its canonical conversion into field elements.
package arecord

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
)

// Record is a single allocation: an amount granted to an address,
// tagged with a timestamp and an id.
//
// Record is comparable, and two records are the same allocation
// if and only if all four fields are equal.
// The comparison is over the raw strings,
// so "0xA" and "0xa" are distinct records
// even though they canonicalize to the same field element.
type Record struct {
	Address   string `json:"address" cbor:"1,keyasint"`
	Amount    uint64 `json:"amount" cbor:"2,keyasint"`
	Timestamp string `json:"timestamp" cbor:"3,keyasint"`
	ID        uint64 `json:"id" cbor:"4,keyasint"`
}

func (r Record) String() string {
	return fmt.Sprintf(
		"Record{address=%s amount=%d timestamp=%s id=%d}",
		r.Address, r.Amount, r.Timestamp, r.ID,
	)
}

// AppendKey appends an unambiguous byte encoding of r to dst.
// Two records produce the same key exactly when they are equal.
//
// The strings are length-prefixed, so no choice of address
// can bleed into the timestamp.
func (r Record) AppendKey(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Address)))
	dst = append(dst, r.Address...)
	dst = binary.BigEndian.AppendUint64(dst, r.Amount)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Timestamp)))
	dst = append(dst, r.Timestamp...)
	dst = binary.BigEndian.AppendUint64(dst, r.ID)
	return dst
}

// Fields are the four record values in the hash domain.
type Fields struct {
	Address, Amount, Timestamp, ID fp.Element
}

// Elements returns the fields in hashing order:
// address, amount, timestamp, id.
func (f Fields) Elements() [4]fp.Element {
	return [4]fp.Element{f.Address, f.Amount, f.Timestamp, f.ID}
}

// Canonicalize converts r's fields into field elements.
//
// The address and timestamp are parsed as hex;
// the amount and id are always representable.
// A malformed address takes precedence over a malformed timestamp.
func Canonicalize(r Record) (Fields, error) {
	addr, err := afelt.ParseHex(r.Address)
	if err != nil {
		return Fields{}, InvalidAddressError{Address: r.Address, Err: err}
	}

	ts, err := afelt.ParseHex(r.Timestamp)
	if err != nil {
		return Fields{}, InvalidTimestampError{Timestamp: r.Timestamp, Err: err}
	}

	return Fields{
		Address:   addr,
		Amount:    afelt.FromUint64(r.Amount),
		Timestamp: ts,
		ID:        afelt.FromUint64(r.ID),
	}, nil
}
