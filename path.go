package rpgtl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a segment addressing an object member.
func Key(key string) Segment {
	return Segment{key: key}
}

// Index returns a segment addressing an array element.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool {
	return s.isIndex
}

// KeyName returns the object key. It is empty for index segments.
func (s Segment) KeyName() string {
	return s.key
}

// Position returns the array index. It is zero for key segments.
func (s Segment) Position() int {
	return s.index
}

func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// MarshalJSON encodes keys as strings and indexes as numbers.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return json.Marshal(s.key)
}

// UnmarshalJSON accepts a string key or a non-negative integer index.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*s = Key(key)
		return nil
	}

	var idx int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("path segment must be a string or integer: %s", data)
	}
	if idx < 0 {
		return fmt.Errorf("negative path index %d", idx)
	}
	*s = Index(idx)
	return nil
}

// Path addresses a node inside a JSON document.
type Path []Segment

// Key returns a new path with a key segment appended.
func (p Path) Key(key string) Path {
	return p.append(Key(key))
}

// Index returns a new path with an index segment appended.
func (p Path) Index(i int) Path {
	return p.append(Index(i))
}

// append never writes into p's backing array.
func (p Path) append(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Last returns the final segment and false for an empty path.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path as events[1].pages[0].list[3].parameters[0].
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if !s.isIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}
