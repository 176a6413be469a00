package ingest

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"supply-agent/internal/core"
)

// Summary is an overview of a stock snapshot.
type Summary struct {
	Total             int                   `json:"total"`
	ByClass           map[core.ABCClass]int `json:"by_class"`
	Unclassified      int                   `json:"unclassified"`
	TotalBalance      int                   `json:"total_balance"`
	WithStock         int                   `json:"with_stock"`
	ZeroStock         int                   `json:"zero_stock"`
	MeanBalance       float64               `json:"mean_balance"`
	MedianBalance     float64               `json:"median_balance"`
	PendingTotal      int                   `json:"pending_total"`
	WithPending       int                   `json:"with_pending"`
	ExpectedTotal     int                   `json:"expected_receipt_total"`
	MeanConsumption   float64               `json:"mean_consumption"`
	MaxConsumption    float64               `json:"max_consumption"`
	MeanLoss          float64               `json:"mean_loss_coefficient"`
	NeedPurchase      int                   `json:"need_purchase"`
	Alerts            int                   `json:"alerts"`
	TopAlerts         []core.StockRecord    `json:"top_alerts"`
	TopPendingRecords []core.StockRecord    `json:"top_pending"`
}

const topN = 10

// Summarize computes the overview. Records are not modified.
func Summarize(records []core.StockRecord, p core.Policy) Summary {
	s := Summary{Total: len(records), ByClass: map[core.ABCClass]int{}}
	if len(records) == 0 {
		s.TopAlerts = []core.StockRecord{}
		s.TopPendingRecords = []core.StockRecord{}
		return s
	}

	balances := make([]int, 0, len(records))
	var consumption, loss float64
	for _, rec := range records {
		if rec.ABC == "" {
			s.Unclassified++
		} else {
			s.ByClass[rec.ABC]++
		}
		s.TotalBalance += rec.CurrentBalance
		if rec.CurrentBalance > 0 {
			s.WithStock++
		} else {
			s.ZeroStock++
		}
		balances = append(balances, rec.CurrentBalance)
		s.PendingTotal += rec.PendingPurchases
		if rec.PendingPurchases > 0 {
			s.WithPending++
		}
		s.ExpectedTotal += rec.ExpectedReceipt
		consumption += rec.ConsumptionRate
		if rec.ConsumptionRate > s.MaxConsumption {
			s.MaxConsumption = rec.ConsumptionRate
		}
		loss += rec.LossCoefficient
		if core.ReorderQuantity(rec, p) > 0 {
			s.NeedPurchase++
		}
	}

	n := float64(len(records))
	s.MeanBalance = float64(s.TotalBalance) / n
	s.MeanConsumption = consumption / n
	s.MeanLoss = loss / n

	sort.Ints(balances)
	mid := len(balances) / 2
	if len(balances)%2 == 1 {
		s.MedianBalance = float64(balances[mid])
	} else {
		s.MedianBalance = float64(balances[mid-1]+balances[mid]) / 2
	}

	alerts := core.StockAlerts(records, p)
	s.Alerts = len(alerts)
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].ConsumptionRate > alerts[j].ConsumptionRate })
	s.TopAlerts = head(alerts, topN)

	pending := make([]core.StockRecord, len(records))
	copy(pending, records)
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].PendingPurchases > pending[j].PendingPurchases })
	s.TopPendingRecords = head(pending, topN)
	return s
}

func head(records []core.StockRecord, n int) []core.StockRecord {
	if len(records) > n {
		records = records[:n]
	}
	out := make([]core.StockRecord, len(records))
	copy(out, records)
	return out
}

// WriteText renders the summary as an aligned report.
func (s Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Records:\t%d\n", s.Total)
	fmt.Fprintf(tw, "ABC A / B / C / none:\t%d / %d / %d / %d\n",
		s.ByClass[core.ClassA], s.ByClass[core.ClassB], s.ByClass[core.ClassC], s.Unclassified)
	fmt.Fprintf(tw, "Balance total:\t%d\n", s.TotalBalance)
	fmt.Fprintf(tw, "With stock / zero stock:\t%d / %d\n", s.WithStock, s.ZeroStock)
	fmt.Fprintf(tw, "Balance mean / median:\t%.2f / %.2f\n", s.MeanBalance, s.MedianBalance)
	fmt.Fprintf(tw, "Pending purchases:\t%d (%d records)\n", s.PendingTotal, s.WithPending)
	fmt.Fprintf(tw, "Expected receipt:\t%d\n", s.ExpectedTotal)
	fmt.Fprintf(tw, "Consumption mean / max:\t%.2f / %.2f\n", s.MeanConsumption, s.MaxConsumption)
	fmt.Fprintf(tw, "Loss coefficient mean:\t%.4f\n", s.MeanLoss)
	fmt.Fprintf(tw, "Need purchase:\t%d\n", s.NeedPurchase)
	fmt.Fprintf(tw, "Stock alerts:\t%d\n", s.Alerts)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.TopAlerts) > 0 {
		fmt.Fprintln(w, "\nMost critical (no stock, highest consumption):")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  CODE\tABC\tCONSUMPTION\tPENDING")
		for _, rec := range s.TopAlerts {
			fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%d\n", rec.Code, rec.ABC, rec.ConsumptionRate, rec.PendingPurchases)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
