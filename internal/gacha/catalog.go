package gacha

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Catalog partitions item names into rarity tiers. Names keep file order.
// Duplicates are kept as-is; see Duplicates.
type Catalog struct {
	names [NumTiers][]string
}

// NewCatalog builds a catalog from per-tier name lists.
func NewCatalog(names map[Tier][]string) *Catalog {
	c := &Catalog{}
	for t, ns := range names {
		if t < 0 || int(t) >= NumTiers {
			continue
		}
		c.names[t] = append([]string(nil), ns...)
	}
	return c
}

// Names returns the names of tier t. The slice must not be modified.
func (c *Catalog) Names(t Tier) []string {
	if c == nil || t < 0 || int(t) >= NumTiers {
		return nil
	}
	return c.names[t]
}

// Len is the total number of catalog rows.
func (c *Catalog) Len() int {
	n := 0
	for _, t := range Tiers {
		n += len(c.Names(t))
	}
	return n
}

// TierSizes returns the number of names per tier.
func (c *Catalog) TierSizes() [NumTiers]int {
	var out [NumTiers]int
	for _, t := range Tiers {
		out[t] = len(c.Names(t))
	}
	return out
}

// Entry is one catalog row.
type Entry struct {
	Name string
	Tier Tier
}

// Duplicates returns the 2nd+ occurrences of every repeated name, in tier
// then file order.
func (c *Catalog) Duplicates() []Entry {
	seen := make(map[string]bool)
	var dups []Entry
	for _, t := range Tiers {
		for _, n := range c.Names(t) {
			if seen[n] {
				dups = append(dups, Entry{Name: n, Tier: t})
				continue
			}
			seen[n] = true
		}
	}
	return dups
}

// LoadCatalogFile reads a catalog CSV from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f, path)
}

// ReadCatalog parses a CSV with "name" and "rarity" header columns.
// An unknown rarity label aborts the whole load.
func ReadCatalog(r io.Reader, source string) (*Catalog, error) {
	if source == "" {
		source = "<reader>"
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Source: source, Reason: "missing header", Value: ""}
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	nameCol, rarityCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "name":
			nameCol = i
		case "rarity":
			rarityCol = i
		}
	}
	if nameCol < 0 {
		return nil, &ParseError{Source: source, Row: 1, Reason: "missing column", Value: "name"}
	}
	if rarityCol < 0 {
		return nil, &ParseError{Source: source, Row: 1, Reason: "missing column", Value: "rarity"}
	}

	c := &Catalog{}
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", row, err)
		}
		if nameCol >= len(rec) || rarityCol >= len(rec) {
			return nil, &ParseError{Source: source, Row: row, Reason: "short row", Value: strings.Join(rec, ",")}
		}
		label := rec[rarityCol]
		t, ok := ParseTier(label)
		if !ok {
			return nil, &ParseError{Source: source, Row: row, Reason: "unknown rarity", Value: label}
		}
		c.names[t] = append(c.names[t], rec[nameCol])
	}
	return c, nil
}
