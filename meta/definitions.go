//go:generate gondn_tlv_gen
package meta

import (
	enc "github.com/named-data/ndnd/std/encoding"
)

// ContentMetaInfo is the "_meta" payload of a generalized object: it
// tells a consumer whether the object's bytes live inline (Other) or are
// segmented under sibling "segment=i" children.
type ContentMetaInfo struct {
	//+field:string
	ContentType string `tlv:"0xc8"`
	//+field:natural
	Timestamp uint64 `tlv:"0xca"`
	//+field:bool
	HasSegments bool `tlv:"0xcc"`
	//+field:binary
	Other []byte `tlv:"0xce"`
}

// Delegation is a single (preference, Name) pair of a DelegationSet.
type Delegation struct {
	//+field:natural
	Preference uint64 `tlv:"0x1e"`
	//+field:name
	Name enc.Name `tlv:"0x07"`
}

// DelegationSet is the "_latest" payload: a list of names, each with a
// Preference. Entries are kept in encoding order, and the first entry in
// that order is authoritative for this module's purposes; Preference is
// not consulted.
type DelegationSet struct {
	//+field:sequence:*Delegation:struct:Delegation
	Delegations []*Delegation `tlv:"0x1f"`
}
