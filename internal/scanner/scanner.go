package scanner

import (
	"fmt"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// DefaultPattern is `01 00 00 00` followed by the ASCII marker "spotify:".
// The save point sits on the marker, right after the 4-byte literal.
const DefaultPattern = "01 00 00 00 '73 70 6F 74 69 66 79 3A"

// DefaultCorrection is subtracted from the captured address.
// It was determined empirically and may need recalibration per target build.
const DefaultCorrection int64 = 0

// Scanner finds the address of the track identifier inside a module snapshot.
type Scanner struct {
	pattern    Pattern
	correction int64
}

// New creates a scanner from pattern syntax and a correction offset.
func New(pattern string, correction int64) (*Scanner, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Scanner{pattern: p, correction: correction}, nil
}

// NewDefault creates a scanner with DefaultPattern and DefaultCorrection.
func NewDefault() *Scanner {
	return &Scanner{pattern: MustParsePattern(DefaultPattern), correction: DefaultCorrection}
}

// Scan returns the address derived from the first match in snap.
// The first save point (capture 1) is used when the pattern has one, otherwise the match start.
// Returns an error wrapping domain.ErrNotFound if the pattern does not occur.
func (s *Scanner) Scan(snap domain.ModuleSnapshot) (domain.Address, error) {
	m, ok := s.pattern.Find(snap.Bytes)
	if !ok {
		return 0, fmt.Errorf("%d byte snapshot at %s: %w", len(snap.Bytes), snap.Base, domain.ErrNotFound)
	}
	return s.resolve(snap.Base, m)
}

// Candidates returns every address the pattern resolves to, in buffer order.
// Only the first one is authoritative; the rest are for diagnostics.
func (s *Scanner) Candidates(snap domain.ModuleSnapshot) []domain.Address {
	var out []domain.Address
	for _, m := range s.pattern.FindAll(snap.Bytes, 0) {
		if addr, err := s.resolve(snap.Base, m); err == nil {
			out = append(out, addr)
		}
	}
	return out
}

func (s *Scanner) resolve(base domain.Address, m Match) (domain.Address, error) {
	capture := m.Captures[0]
	if len(m.Captures) > 1 {
		capture = m.Captures[1]
	}
	offset := int64(capture) - s.correction
	addr := int64(base) + offset
	if addr < 0 {
		return 0, fmt.Errorf("correction %d moves address below zero: %w", s.correction, domain.ErrNotFound)
	}
	return domain.Address(addr), nil
}
