package strikes

import "github.com/pkg/errors"

// ErrUnknownLabel is returned when a sample label is missing from the class
// vocabulary the network is trained on.
var ErrUnknownLabel = errors.New("unknown label")

// Vocabulary is an ordered list of label names. The position of a name is its
// class index.
type Vocabulary []string

// Categories are the strike categories.
var Categories = Vocabulary{"突き", "回し蹴り", "裏回し蹴り", "正蹴り", "なし"}

// Positions are the vertical target zones.
var Positions = Vocabulary{"上段", "中段"}

// Arrows are the attacking sides.
var Arrows = Vocabulary{"左", "右"}

// Statuses tell whether a strike counted.
var Statuses = Vocabulary{"有効", "無効"}

// Index returns the class index of name.
func (v Vocabulary) Index(name string) (int, error) {
	for i, n := range v {
		if n == name {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrUnknownLabel, "%q", name)
}

// Name returns the label with index i, or "" when i is out of range.
func (v Vocabulary) Name(i int) string {
	if i < 0 || i >= len(v) {
		return ""
	}
	return v[i]
}
