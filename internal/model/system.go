package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// System is a target operating system.
type System uint

const (
	Windows System = iota
	Unix
	MacOS
	Android
	IOS
	XboxSeries
	PS5
	Switch
	numSystems
)

var systemNames = [...]string{
	Windows:    "Windows",
	Unix:       "Unix",
	MacOS:      "MacOS",
	Android:    "Android",
	IOS:        "IOS",
	XboxSeries: "XboxSeries",
	PS5:        "PS5",
	Switch:     "Switch",
}

func (s System) String() string {
	if s >= numSystems {
		return fmt.Sprintf("System(%d)", uint(s))
	}
	return systemNames[s]
}

func ParseSystem(s string) (System, error) {
	for i, name := range systemNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return System(i), nil
		}
	}
	return 0, fmt.Errorf("unknown system %q", s)
}

// SystemSet is a set of target systems kept in the order they were added.
// The zero value is empty.
type SystemSet struct {
	bits  *bitset.BitSet
	order []System
}

func NewSystemSet(systems ...System) SystemSet {
	var s SystemSet
	for _, sys := range systems {
		s.Add(sys)
	}
	return s
}

func ParseSystemSet(names []string) (SystemSet, error) {
	var s SystemSet
	for _, name := range names {
		sys, err := ParseSystem(name)
		if err != nil {
			return SystemSet{}, err
		}
		s.Add(sys)
	}
	return s, nil
}

func (s *SystemSet) Add(sys System) {
	if s.bits == nil {
		s.bits = bitset.New(uint(numSystems))
	}
	if s.bits.Test(uint(sys)) {
		return
	}
	s.bits.Set(uint(sys))
	s.order = append(s.order, sys)
}

func (s SystemSet) Has(sys System) bool {
	return s.bits != nil && s.bits.Test(uint(sys))
}

func (s SystemSet) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Systems returns the members in the order they were added.
func (s SystemSet) Systems() []System {
	if len(s.order) == 0 {
		return nil
	}
	return slices.Clone(s.order)
}

func (s SystemSet) String() string {
	names := make([]string, 0, s.Len())
	for _, sys := range s.Systems() {
		names = append(names, sys.String())
	}
	return strings.Join(names, ", ")
}
