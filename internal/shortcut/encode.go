package shortcut

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// Encode serializes an identity into the shortcut layout understood by Parse.
// The name is written verbatim (not the canonical form) using the encoding of
// id.Tag.Version. Extra is appended to the data chunk after the name field.
func Encode(id Identity, extra []byte) ([]byte, error) {
	var name []byte
	switch id.Tag.Version {
	case VersionANSI:
		out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(id.Name))
		if err != nil {
			return nil, fmt.Errorf("encode name %q: %w", id.Name, err)
		}
		name = out
	case VersionUTF8:
		name = []byte(id.Name)
	case VersionUTF16:
		out, err := utf16LE.NewEncoder().Bytes([]byte(id.Name))
		if err != nil {
			return nil, fmt.Errorf("encode name %q: %w", id.Name, err)
		}
		name = out
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, id.Tag.Version)
	}
	if len(name) > math.MaxUint16 {
		return nil, fmt.Errorf("name too long: %d bytes", len(name))
	}

	dataLen := 2 + len(name) + len(extra)
	buf := make([]byte, offName, offName+len(name)+len(extra))
	copy(buf, headerMagic)
	binary.LittleEndian.PutUint32(buf[offHeaderLen:], headerBodySize)
	buf[offVersion] = id.Tag.Version
	buf[offKind] = byte(id.Tag.Kind)
	binary.LittleEndian.PutUint32(buf[offPluginID:], id.Tag.PluginID)
	copy(buf[offDataMagic:], dataMagic)
	binary.LittleEndian.PutUint32(buf[offDataLen:], uint32(dataLen))
	binary.LittleEndian.PutUint16(buf[offNameLen:], uint16(len(name)))
	buf = append(buf, name...)
	buf = append(buf, extra...)
	return buf, nil
}
