package shortcut

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// Extension is the file extension of plugin shortcut files.
const Extension = ".fst"

const (
	// MinVersion and MaxVersion bound the supported format discriminator.
	MinVersion = 1
	MaxVersion = 3

	// VersionANSI names are Windows-1252 encoded.
	VersionANSI = 1
	// VersionUTF8 names are UTF-8 encoded.
	VersionUTF8 = 2
	// VersionUTF16 names are UTF-16LE encoded.
	VersionUTF16 = 3
)

const (
	headerMagic    = "FLhd"
	dataMagic      = "FLdt"
	headerBodySize = 6
	// offsets into the buffer
	offHeaderLen = 4
	offVersion   = 8
	offKind      = 9
	offPluginID  = 10
	offDataMagic = 14
	offDataLen   = 18
	offNameLen   = 22
	offName      = 24

	// maxFileSize caps how much of a file ParseFile is willing to read.
	maxFileSize = 16 << 20
)

var utf16LE = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)

var (
	// ErrMalformedShortcut reports a file whose layout does not match the
	// shortcut structure, including truncated files.
	ErrMalformedShortcut = errors.New("malformed shortcut")
	// ErrUnsupportedVersion reports a format discriminator outside the known range.
	ErrUnsupportedVersion = errors.New("unsupported shortcut version")
	// ErrUnidentifiablePlugin reports a structurally valid file whose name is empty.
	ErrUnidentifiablePlugin = errors.New("unidentifiable plugin")
)

// Kind is the plugin wrapper type recorded in the header.
type Kind uint8

const (
	KindNative Kind = 0
	KindVST    Kind = 1
	KindVST3   Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindVST:
		return "vst"
	case KindVST3:
		return "vst3"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tag holds the binary discriminators read from the header.
type Tag struct {
	Version  uint8
	Kind     Kind
	PluginID uint32
}

// Identity is the decoded identity of one shortcut.
type Identity struct {
	// Name is the cleaned display name as stored in the file.
	Name string
	// Canonical is the case-folded, trimmed key used for matching.
	Canonical string
	Tag       Tag
}

// Parse decodes a shortcut from raw bytes.
func Parse(data []byte) (Identity, error) {
	if len(data) < offName {
		return Identity{}, fmt.Errorf("%w: truncated header (%d bytes)", ErrMalformedShortcut, len(data))
	}
	if string(data[:4]) != headerMagic {
		return Identity{}, fmt.Errorf("%w: bad magic %q", ErrMalformedShortcut, data[:4])
	}
	if n := binary.LittleEndian.Uint32(data[offHeaderLen:]); n != headerBodySize {
		return Identity{}, fmt.Errorf("%w: header length %d", ErrMalformedShortcut, n)
	}
	tag := Tag{
		Version:  data[offVersion],
		Kind:     Kind(data[offKind]),
		PluginID: binary.LittleEndian.Uint32(data[offPluginID:]),
	}
	if tag.Version < MinVersion || tag.Version > MaxVersion {
		return Identity{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, tag.Version)
	}
	if string(data[offDataMagic:offDataLen]) != dataMagic {
		return Identity{}, fmt.Errorf("%w: missing data chunk", ErrMalformedShortcut)
	}
	dataLen := uint64(binary.LittleEndian.Uint32(data[offDataLen:]))
	if uint64(len(data)-offNameLen) < dataLen {
		return Identity{}, fmt.Errorf("%w: data chunk truncated (want %d bytes, have %d)", ErrMalformedShortcut, dataLen, len(data)-offNameLen)
	}
	nameLen := uint64(binary.LittleEndian.Uint16(data[offNameLen:]))
	if dataLen < 2+nameLen {
		return Identity{}, fmt.Errorf("%w: name field overruns data chunk", ErrMalformedShortcut)
	}
	raw := data[offName : offName+int(nameLen)]

	name, err := decodeName(tag.Version, raw)
	if err != nil {
		return Identity{}, err
	}
	name = clean(name)
	if name == "" {
		return Identity{}, ErrUnidentifiablePlugin
	}
	return Identity{Name: name, Canonical: Canonical(name), Tag: tag}, nil
}

// ParseFile reads and decodes the shortcut at path.
func ParseFile(path string) (Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Identity{}, err
	}
	if info.Size() > maxFileSize {
		return Identity{}, fmt.Errorf("%w: file too large (%d bytes)", ErrMalformedShortcut, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, err
	}
	return Parse(data)
}

// Canonical normalizes a plugin name into its matching key.
func Canonical(name string) string {
	// Casers hold state and are not safe to share between goroutines.
	return cases.Fold().String(strings.TrimSpace(name))
}

func decodeName(version uint8, raw []byte) (string, error) {
	switch version {
	case VersionANSI:
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: decode name: %v", ErrMalformedShortcut, err)
		}
		return string(out), nil
	case VersionUTF8:
		return strings.ToValidUTF8(string(raw), ""), nil
	case VersionUTF16:
		if len(raw)%2 != 0 {
			return "", fmt.Errorf("%w: odd UTF-16 name length %d", ErrMalformedShortcut, len(raw))
		}
		out, err := utf16LE.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: decode name: %v", ErrMalformedShortcut, err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// clean strips trailing NULs and control characters and trims whitespace.
func clean(name string) string {
	name = strings.TrimRight(name, "\x00")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
