package analyzer

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultStockThreshold applies when the caller supplies none
const DefaultStockThreshold = 10

// StockItem is an inventory record. Nil Stock means untracked.
type StockItem struct {
	ID       string
	Name     string
	Stock    *int
	IsActive bool
}

// LowStock is the result of a stock scan
type LowStock struct {
	Threshold int
	Items     []StockItem
	Critical  int
}

// ScanLowStock keeps active, tracked items at or below threshold, lowest
// stock first. Ties are ordered by name, then id. Critical counts items
// with no stock left.
func ScanLowStock(items []StockItem, threshold int) LowStock {
	res := LowStock{Threshold: threshold, Items: []StockItem{}}

	for _, it := range items {
		if !it.IsActive || it.Stock == nil || *it.Stock > threshold {
			continue
		}
		res.Items = append(res.Items, it)
		if *it.Stock == 0 {
			res.Critical++
		}
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		a, b := res.Items[i], res.Items[j]
		if *a.Stock != *b.Stock {
			return *a.Stock < *b.Stock
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	return res
}

// NormalizeThreshold parses a caller-supplied threshold. Empty or
// malformed input yields def; negative values clamp to 0.
func NormalizeThreshold(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return max(0, n)
}
