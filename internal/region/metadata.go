package region

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

const (
	// RootTableName names the table holding the locations of the meta partitions.
	RootTableName = "-ROOT-"
	// MetaTableName names the catalog table mapping user regions to servers.
	MetaTableName = ".META."
)

// KeyRange describes the inclusive-exclusive key range handled by a Region.
type KeyRange struct {
	Start []byte
	End   []byte // empty slice denotes infinity
}

// Info identifies a single partition of a table. Values built through NewInfo
// own their key slices and are never mutated afterwards.
type Info struct {
	Table string
	Range KeyRange
	ID    uint64
}

var (
	// RootInfo is the single root catalog partition.
	RootInfo = Info{Table: RootTableName, ID: 0}
	// FirstMetaInfo is the meta partition covering the whole catalog key space.
	FirstMetaInfo = Info{Table: MetaTableName, ID: 1}
)

// NewInfo returns a region identity owning copies of the provided keys.
func NewInfo(table string, start, end []byte, id uint64) Info {
	return Info{
		Table: table,
		Range: KeyRange{
			Start: append([]byte(nil), start...),
			End:   append([]byte(nil), end...),
		},
		ID: id,
	}
}

// Name returns the catalog row key of the region: "<table>,<startKey>,<id>".
func (i Info) Name() string {
	var b strings.Builder
	b.Grow(len(i.Table) + len(i.Range.Start) + 22)
	b.WriteString(i.Table)
	b.WriteByte(',')
	b.Write(i.Range.Start)
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(i.ID, 10))
	return b.String()
}

// EncodedName returns a stable, key-safe identifier derived from Name.
func (i Info) EncodedName() string {
	return strconv.FormatUint(xxh3.HashString(i.Name()), 10)
}

// IsRoot reports whether the region is the root catalog partition.
func (i Info) IsRoot() bool {
	return i.Table == RootTableName
}

// IsMeta reports whether the region is a partition of the meta table.
func (i Info) IsMeta() bool {
	return i.Table == MetaTableName
}

// IsCatalog reports whether the region belongs to either catalog table.
func (i Info) IsCatalog() bool {
	return i.IsRoot() || i.IsMeta()
}

// IsZero reports whether the identity carries no table.
func (i Info) IsZero() bool {
	return i.Table == ""
}

// ContainsKey reports whether the region manages the provided key.
func (i Info) ContainsKey(key []byte) bool {
	if len(i.Range.Start) > 0 && bytes.Compare(key, i.Range.Start) < 0 {
		return false
	}
	if len(i.Range.End) > 0 && bytes.Compare(key, i.Range.End) >= 0 {
		return false
	}
	return true
}

// Clone returns a copy of the identity that shares no memory with i.
func (i Info) Clone() Info {
	return NewInfo(i.Table, i.Range.Start, i.Range.End, i.ID)
}

// Equal reports whether both values identify the same region.
func (i Info) Equal(other Info) bool {
	return i.Table == other.Table &&
		i.ID == other.ID &&
		bytes.Equal(i.Range.Start, other.Range.Start) &&
		bytes.Equal(i.Range.End, other.Range.End)
}

func (i Info) String() string {
	return i.Name()
}
