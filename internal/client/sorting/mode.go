package sorting

import (
	"fmt"
	"strings"
)

type Mode uint8

const (
	ModeNone Mode = iota
	ModeAlphabet
	ModeCreative
	ModeQuantity
	ModeRawID
)

var modeNames = map[Mode]string{
	ModeNone:     "none",
	ModeAlphabet: "alphabet",
	ModeCreative: "creative",
	ModeQuantity: "quantity",
	ModeRawID:    "raw_id",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("unknown sort mode %q", s)
}
