package kouden

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateBand is a descriptive bucket for a return rate
type RateBand string

const (
	RateBandUnder    RateBand = "under-returned"
	RateBandOnTarget RateBand = "on-target"
	RateBandOver     RateBand = "over-returned"
)

var (
	onTargetLower = decimal.NewFromFloat(0.3)
	onTargetUpper = decimal.NewFromFloat(0.5)
)

// rateScale is the number of decimal places kept in a return rate
const rateScale = 4

// ReturnManagementSummary joins a gift entry with its return state
type ReturnManagementSummary struct {
	Entry              GiftEntry
	RelationshipName   *string
	Record             *ReturnEntryRecord
	HasReturnRecord    bool
	OfferingAllocation int64
	TotalReturnValue   int64
	ReturnRate         float64
	RateBand           RateBand
	OutstandingAmount  int64
}

// NewReturnManagementSummary computes the derived figures for one entry.
// record may be nil, in which case a placeholder is used.
func NewReturnManagementSummary(entry GiftEntry, record *ReturnEntryRecord, relationshipName *string, allocation int64) ReturnManagementSummary {
	hasRecord := record != nil
	if record == nil {
		record = PlaceholderRecord(&entry)
	}
	total := record.ReturnItemsCost + record.FuneralGiftAmount + allocation
	rate := ReturnRate(total, entry.Amount)

	outstanding := entry.Amount - total
	if outstanding < 0 {
		outstanding = 0
	}
	return ReturnManagementSummary{
		Entry:              entry,
		RelationshipName:   relationshipName,
		Record:             record,
		HasReturnRecord:    hasRecord,
		OfferingAllocation: allocation,
		TotalReturnValue:   total,
		ReturnRate:         rate.InexactFloat64(),
		RateBand:           ClassifyRate(rate),
		OutstandingAmount:  outstanding,
	}
}

// ReturnRate returns total/amount rounded to four places, or zero when amount <= 0.
func ReturnRate(total, amount int64) decimal.Decimal {
	if amount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).DivRound(decimal.NewFromInt(amount), rateScale)
}

// ClassifyRate buckets a rate: below 30% under, 30% to 50% inclusive on target, above 50% over.
func ClassifyRate(rate decimal.Decimal) RateBand {
	switch {
	case rate.LessThan(onTargetLower):
		return RateBandUnder
	case rate.GreaterThan(onTargetUpper):
		return RateBandOver
	default:
		return RateBandOnTarget
	}
}

// ReturnStatistics aggregates the summaries of a whole ledger
type ReturnStatistics struct {
	KoudenID          uuid.UUID
	TotalEntries      int
	WithoutRecord     int
	StatusCounts      map[ReturnStatus]int
	BandCounts        map[RateBand]int
	TotalGiftAmount   int64
	TotalReturnValue  int64
	OutstandingAmount int64
	ReturnRate        float64
}

// NewReturnStatistics folds summaries into ledger-level totals
func NewReturnStatistics(koudenID uuid.UUID, summaries []ReturnManagementSummary) ReturnStatistics {
	stats := ReturnStatistics{
		KoudenID:     koudenID,
		TotalEntries: len(summaries),
		StatusCounts: make(map[ReturnStatus]int, len(AllReturnStatuses)),
		BandCounts:   make(map[RateBand]int, 3),
	}
	for _, s := range AllReturnStatuses {
		stats.StatusCounts[s] = 0
	}
	for _, s := range summaries {
		if s.HasReturnRecord {
			stats.StatusCounts[s.Record.ReturnStatus]++
		} else {
			stats.WithoutRecord++
		}
		stats.BandCounts[s.RateBand]++
		stats.TotalGiftAmount += s.Entry.Amount
		stats.TotalReturnValue += s.TotalReturnValue
		stats.OutstandingAmount += s.OutstandingAmount
	}
	stats.ReturnRate = ReturnRate(stats.TotalReturnValue, stats.TotalGiftAmount).InexactFloat64()
	return stats
}
