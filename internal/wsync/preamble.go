// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsync

import (
	"encoding/binary"
	"fmt"
)

// PreambleLength is the fixed size in bytes of the handshake preamble
// a client sends as the first binary frame on a new connection,
// before any refresh token or sync version follows.
const PreambleLength = 8

// ClientType distinguishes the first-party clients the preamble can
// announce. Unknown values are preserved rather than rejected, so a
// future client type does not need a server rebuild to connect.
type ClientType uint8

const (
	ClientTypeIOS ClientType = iota
	ClientTypeAndroid
	ClientTypeWeb
)

// Preamble is the connection handshake header: protocol version,
// client platform, and the client build's semantic version. The
// server uses Proto to select how to parse everything that follows
// and ClientVersion for diagnostics; neither gates the connection.
type Preamble struct {
	Proto         uint8
	ClientType    ClientType
	ClientVersion [3]uint16
}

// ParsePreamble decodes the 8-byte handshake header: proto (1 byte),
// client type (1 byte), then major/minor/patch as little-endian
// uint16 each. Returns an error if b is shorter than PreambleLength.
func ParsePreamble(b []byte) (Preamble, error) {
	if len(b) < PreambleLength {
		return Preamble{}, fmt.Errorf("wsync: preamble too short: got %d bytes, want %d", len(b), PreambleLength)
	}
	return Preamble{
		Proto:      b[0],
		ClientType: ClientType(b[1]),
		ClientVersion: [3]uint16{
			binary.LittleEndian.Uint16(b[2:4]),
			binary.LittleEndian.Uint16(b[4:6]),
			binary.LittleEndian.Uint16(b[6:8]),
		},
	}, nil
}

// Encode serializes p back into its 8-byte wire form. Used by tests
// and by any future server-initiated renegotiation.
func (p Preamble) Encode() []byte {
	b := make([]byte, PreambleLength)
	b[0] = p.Proto
	b[1] = uint8(p.ClientType)
	binary.LittleEndian.PutUint16(b[2:4], p.ClientVersion[0])
	binary.LittleEndian.PutUint16(b[4:6], p.ClientVersion[1])
	binary.LittleEndian.PutUint16(b[6:8], p.ClientVersion[2])
	return b
}
