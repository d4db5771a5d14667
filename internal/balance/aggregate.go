// Package balance summarizes wallet allocations per address, asset and
// outpoint for display.
package balance

import (
	"fmt"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/model"
)

// OutPointAmount is one allocation contributing to a balance.
type OutPointAmount struct {
	OutPoint model.OutPoint
	Amount   amount.Amount
}

// AddressBalance is the total of one asset held on one address, with the
// contributing outpoints in input order.
type AddressBalance struct {
	Address     string
	Total       amount.Amount
	Allocations []OutPointAmount
}

type addressKey struct {
	address string
	asset   string
}

// ByAddress groups allocations by address and asset in first-seen order.
// Allocations without an address are skipped.
func ByAddress(allocs []model.Allocation) ([]AddressBalance, error) {
	groups := make(map[addressKey]*AddressBalance)
	var order []addressKey

	for _, a := range allocs {
		if !a.HasAddress() {
			continue
		}
		key := addressKey{address: a.Address, asset: a.Asset.ID}
		g, seen := groups[key]
		if !seen {
			g = &AddressBalance{Address: a.Address, Total: amount.New(0, a.Asset)}
			groups[key] = g
			order = append(order, key)
		}

		part := amount.New(a.AtomicAmount, a.Asset)
		total, err := g.Total.Add(part)
		if err != nil {
			return nil, fmt.Errorf("summing %s on %s: %w", a.Asset.ID, a.Address, err)
		}
		g.Total = total
		g.Allocations = append(g.Allocations, OutPointAmount{OutPoint: a.OutPoint, Amount: part})
	}

	out := make([]AddressBalance, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}

// ByAsset sums allocations per asset id, including those without an address.
func ByAsset(allocs []model.Allocation) (map[string]amount.Amount, error) {
	totals := make(map[string]amount.Amount)
	for _, a := range allocs {
		cur, ok := totals[a.Asset.ID]
		if !ok {
			cur = amount.New(0, a.Asset)
		}
		sum, err := cur.Add(amount.New(a.AtomicAmount, a.Asset))
		if err != nil {
			return nil, fmt.Errorf("summing %s: %w", a.Asset.ID, err)
		}
		totals[a.Asset.ID] = sum
	}
	return totals, nil
}

// OutPointBalance lists everything held on one outpoint.
type OutPointBalance struct {
	OutPoint model.OutPoint
	Address  string
	Amounts  []amount.Amount
}

// ByOutpoint groups allocations per outpoint in first-seen order. One UTXO
// can carry several assets.
func ByOutpoint(allocs []model.Allocation) ([]OutPointBalance, error) {
	index := make(map[model.OutPoint]int)
	var out []OutPointBalance

	for _, a := range allocs {
		i, seen := index[a.OutPoint]
		if !seen {
			i = len(out)
			index[a.OutPoint] = i
			out = append(out, OutPointBalance{OutPoint: a.OutPoint, Address: a.Address})
		}
		b := &out[i]
		if b.Address == "" {
			b.Address = a.Address
		}

		part := amount.New(a.AtomicAmount, a.Asset)
		merged := false
		for j := range b.Amounts {
			if b.Amounts[j].Asset.Same(a.Asset) {
				sum, err := b.Amounts[j].Add(part)
				if err != nil {
					return nil, fmt.Errorf("summing %s on %s: %w", a.Asset.ID, a.OutPoint, err)
				}
				b.Amounts[j] = sum
				merged = true
				break
			}
		}
		if !merged {
			b.Amounts = append(b.Amounts, part)
		}
	}
	return out, nil
}
