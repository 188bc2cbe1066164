package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errReadBytes = errors.New("confloader: override provider has no byte form")

// overrideProvider feeds dotted keys into koanf as a nested tree.
type overrideProvider map[string]any

func (o overrideProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytes
}

func (o overrideProvider) Read() (map[string]any, error) {
	return maps.Unflatten(o, "."), nil
}
