package model

import (
	"slices"
	"strconv"
	"strings"
)

// IDSet is a sorted set of trace ids. It serializes as a plain array.
type IDSet []int64

// Add inserts id and reports whether it was absent.
func (s *IDSet) Add(id int64) bool {
	i, found := slices.BinarySearch(*s, id)
	if found {
		return false
	}
	*s = slices.Insert(*s, i, id)
	return true
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id int64) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

// Len returns the number of ids.
func (s IDSet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// String renders the ids comma-separated, as stored in the AppliedIds
// annotation.
func (s IDSet) String() string {
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDSet parses the comma-separated form produced by String.
func ParseIDSet(v string) (IDSet, error) {
	var s IDSet
	if v == "" {
		return s, nil
	}
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		s.Add(id)
	}
	return s, nil
}

// KeySet is a sorted set of string keys. The static graph keys its applied
// sets by fingerprint digest.
type KeySet []string

// Add inserts key and reports whether it was absent.
func (s *KeySet) Add(key string) bool {
	i, found := slices.BinarySearch(*s, key)
	if found {
		return false
	}
	*s = slices.Insert(*s, i, key)
	return true
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, found := slices.BinarySearch(s, key)
	return found
}

// Len returns the number of keys.
func (s KeySet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// String renders the keys comma-separated.
func (s KeySet) String() string {
	return strings.Join(s, ",")
}
