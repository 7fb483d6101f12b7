package domain

import (
    "fmt"
    "strings"
)

func rowLabel(r int) byte { return byte('a' + r) }

// Coord maps a cell index (0..8) to its row letter and column digit.
func Coord(i int) string {
    return fmt.Sprintf("%c%d", rowLabel(i/3), i%3+1)
}

// ParseCoord converts a coordinate like "a1" or " B3\n" to a cell index.
func ParseCoord(s string) (int, error) {
    s = strings.ToLower(strings.TrimSpace(s))
    if len(s) != 2 {
        return 0, fmt.Errorf("%w: %q", ErrBadCoord, s)
    }
    row, col := s[0], s[1]
    if row < 'a' || row > 'z' || col < '0' || col > '9' {
        return 0, fmt.Errorf("%w: %q", ErrBadCoord, s)
    }
    if row > 'c' || col < '1' || col > '3' {
        return 0, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
    }
    return int(row-'a')*3 + int(col-'1'), nil
}
