/*
grouping.go - Authorization-reference grouping and the "current" view

PURPOSE:
  A booking may be captured once, fully refunded, then captured again later
  (a card-on-file charge after an initial refund). Displaying only the latest
  authorization's captured amount is correct - but refunds must still
  accumulate across the booking's entire history.

ALGORITHM:
  Group transactions by AuthorizationRef (transactions lacking one form their
  own singleton groups). Within each group, sum captured balance/tip and
  refunds, and note the group's latest timestamp. The group with the latest
  timestamp is "primary": its captured sums become the displayed totals. The
  refunded total is the MAXIMUM of (sum of all groups' refunds) and the
  primary group's own refunds - guarding against undercounting when refunds
  were logged without a matching AuthorizationRef.

SEE ALSO:
  - summary.go: Summarize, which the view reuses for pending totals and status
*/
package ledger

import (
	"sort"
	"time"

	"github.com/warp/booking-engine/money"
)

// =============================================================================
// AUTHORIZATION GROUP - Transactions from one authorization/capture cycle
// =============================================================================

type AuthorizationGroup struct {
	// Ref is the shared authorization reference; empty for singleton groups.
	Ref string

	CapturedBalance money.Amount
	CapturedTip     money.Amount
	Refunded        money.Amount
	LatestAt        time.Time

	Transactions []Transaction
}

// GroupByAuthorization partitions transactions by authorization reference.
// Groups are returned ordered by LatestAt ascending, so the last group is
// the current authorization.
func GroupByAuthorization(txs []Transaction, currency string) []AuthorizationGroup {
	index := make(map[string]int)
	var groups []AuthorizationGroup

	groupFor := func(key string, ref string) *AuthorizationGroup {
		if i, ok := index[key]; ok {
			return &groups[i]
		}
		groups = append(groups, AuthorizationGroup{
			Ref:             ref,
			CapturedBalance: money.Zero(currency),
			CapturedTip:     money.Zero(currency),
			Refunded:        money.Zero(currency),
		})
		index[key] = len(groups) - 1
		return &groups[len(groups)-1]
	}

	for _, tx := range txs {
		key := tx.AuthorizationRef
		ref := tx.AuthorizationRef
		if key == "" {
			// No authorization reference: the transaction is its own group.
			key = "singleton:" + tx.ID
			ref = ""
		}

		g := groupFor(key, ref)
		g.Transactions = append(g.Transactions, tx)
		if tx.OccurredAt.After(g.LatestAt) {
			g.LatestAt = tx.OccurredAt
		}

		amount := tx.Amount.ClampZero()
		switch {
		case tx.Kind.IsRefund():
			g.Refunded = g.Refunded.Add(amount)
		case tx.Status.IsCaptured():
			if tx.Kind.IsTip() {
				g.CapturedTip = g.CapturedTip.Add(amount)
			} else if tx.Kind.IsBalanceBucket() {
				g.CapturedBalance = g.CapturedBalance.Add(amount)
			}
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LatestAt.Before(groups[j].LatestAt)
	})
	return groups
}

// =============================================================================
// VIEW - What the caller displays for a booking
// =============================================================================

type View struct {
	Summary Summary
	Groups  []AuthorizationGroup
}

// Primary returns the current authorization group: the latest group holding
// captured funds. A refund logged without its authorization reference forms a
// singleton group but never becomes the current cycle. Nil for an empty view.
func (v View) Primary() *AuthorizationGroup {
	for i := len(v.Groups) - 1; i >= 0; i-- {
		g := &v.Groups[i]
		if g.CapturedBalance.IsPositive() || g.CapturedTip.IsPositive() {
			return g
		}
	}
	if len(v.Groups) == 0 {
		return nil
	}
	return &v.Groups[len(v.Groups)-1]
}

// CurrentView reconciles the full transaction list, then narrows the
// displayed captured totals to the primary authorization group while
// keeping refunds accumulated across the whole history.
func CurrentView(txs []Transaction, signals StatusSignals, currency string) View {
	summary := Summarize(txs, signals, currency)
	groups := GroupByAuthorization(txs, currency)
	view := View{Summary: summary, Groups: groups}

	primary := view.Primary()
	if primary == nil {
		return view
	}

	allRefunds := money.Zero(currency)
	for _, g := range groups {
		allRefunds = allRefunds.Add(g.Refunded)
	}

	view.Summary.CapturedBalance = primary.CapturedBalance
	view.Summary.CapturedTip = primary.CapturedTip
	view.Summary.RefundedTotal = allRefunds.Max(primary.Refunded)
	view.Summary.RefundedBalance, view.Summary.RefundedTip = explicitRefundPortions(txs, currency)
	view.Summary = view.Summary.attributeUntaggedRefunds()
	view.Summary = view.Summary.clampRefunded()
	view.Summary.Status = deriveStatus(signals, txs, view.Summary)
	return view
}

// explicitRefundPortions sums the refund amounts that carry an explicit
// bucket tag. Untagged refunds are attributed afterwards, balance-first,
// against the narrowed captured totals.
func explicitRefundPortions(txs []Transaction, currency string) (balance, tip money.Amount) {
	balance = money.Zero(currency)
	tip = money.Zero(currency)
	for _, tx := range txs {
		if !tx.Kind.IsRefund() {
			continue
		}
		switch tx.RefundBucket {
		case money.BucketService:
			balance = balance.Add(tx.Amount.ClampZero())
		case money.BucketTip:
			tip = tip.Add(tx.Amount.ClampZero())
		}
	}
	return balance, tip
}
