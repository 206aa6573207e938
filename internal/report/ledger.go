package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wbledger/internal/client/wb"
	"wbledger/internal/fetch"
)

// Deduction-category labels are free text; categories are recognized by
// fixed substrings, case-insensitively. These are the exact labels the
// marketplace uses and must not be translated.
const (
	labelDisposal     = "утилизац"
	labelSubscription = "джем"
	labelAcceptance   = "приемк"
	labelReview       = "отзыв"
	labelAdvertising  = "продвижени"
)

var reviewProductID = regexp.MustCompile(`\d{5,}`)

// LedgerRow is one product's line in the final settlement ledger.
type LedgerRow struct {
	ProductID         string
	VendorCode        string
	SaleQty           int
	RetailAmount      decimal.Decimal
	ForPay            decimal.Decimal
	DeliveryCount     int
	DeliveryCost      decimal.Decimal
	Penalty           decimal.Decimal
	AdditionalPayment decimal.Decimal
	ReturnQty         int
	ReturnAmount      decimal.Decimal
	Storage           decimal.Decimal
	Advert            decimal.Decimal
	Subscription      decimal.Decimal
	Acceptance        decimal.Decimal
	Disposal          decimal.Decimal
	ReviewDebit       decimal.Decimal
	OtherDeductions   decimal.Decimal
	Settlement        decimal.Decimal
}

// Sources are the four normalized feeds joined into the ledger, plus the
// card mapping used for vendor-code fallback.
type Sources struct {
	Sales      []wb.SaleRow
	Cards      map[string]wb.Card
	Storage    map[string]fetch.StorageTotal
	Acceptance fetch.AcceptanceResult
	Adverts    map[string]fetch.AdvertTotal
}

type salesAgg struct {
	vendorCode    string
	qty           int
	retail        decimal.Decimal
	forPay        decimal.Decimal
	deliveryCount int
	deliveryCost  decimal.Decimal
	penalty       decimal.Decimal
	additional    decimal.Decimal
}

type returnsAgg struct {
	qty    int
	amount decimal.Decimal
}

// productKey normalizes the marketplace's numeric product id to its
// canonical join key: an upper-cased string.
func productKey(nmID int64) string {
	return strings.ToUpper(strconv.FormatInt(nmID, 10))
}

func isSale(row wb.SaleRow) bool {
	return strings.Contains(strings.ToLower(row.DocTypeName), "продажа")
}

func isReturn(row wb.SaleRow) bool {
	return strings.Contains(strings.ToLower(row.DocTypeName), "возврат")
}

// AcceptanceDeductionTotal sums the paid-acceptance deductions recorded in
// the raw sales feed. The merge step cross-checks this against the
// acceptance report's declared total.
func AcceptanceDeductionTotal(sales []wb.SaleRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range sales {
		if row.Deduction == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(row.BonusTypeName), labelAcceptance) {
			total = total.Add(decimal.NewFromFloat(row.Deduction))
		}
	}
	return total
}

// BuildLedger outer-joins the four sources on the product key and computes
// the settlement column. Products missing from a source get zeros for that
// source's columns. Period-level deduction totals (disposal, subscription,
// unattributed review debits, unclassified "other") are split evenly across
// all ledger rows; this mirrors the marketplace's own reports and is an
// approximation, not a per-product attribution.
func BuildLedger(src Sources) []LedgerRow {
	sales := make(map[string]*salesAgg)
	returns := make(map[string]*returnsAgg)
	disposalTotal := decimal.Zero
	subscriptionTotal := decimal.Zero

	for _, row := range src.Sales {
		if row.NmID == 0 {
			// Sentinel rows carry period-level amounts, not a product.
			if row.Deduction != 0 {
				label := strings.ToLower(row.BonusTypeName)
				switch {
				case strings.Contains(label, labelDisposal):
					disposalTotal = disposalTotal.Add(decimal.NewFromFloat(row.Deduction))
				case strings.Contains(label, labelSubscription):
					subscriptionTotal = subscriptionTotal.Add(decimal.NewFromFloat(row.Deduction))
				}
			}
			continue
		}
		key := productKey(row.NmID)
		switch {
		case isSale(row):
			agg, ok := sales[key]
			if !ok {
				agg = &salesAgg{}
				sales[key] = agg
			}
			if agg.vendorCode == "" {
				agg.vendorCode = row.SaName
			}
			agg.qty += row.Quantity
			agg.retail = agg.retail.Add(decimal.NewFromFloat(row.RetailAmount))
			agg.forPay = agg.forPay.Add(decimal.NewFromFloat(row.PpvzForPay))
		case isReturn(row):
			agg, ok := returns[key]
			if !ok {
				agg = &returnsAgg{}
				returns[key] = agg
			}
			agg.qty += row.Quantity
			agg.amount = agg.amount.Add(decimal.NewFromFloat(row.PpvzForPay))
		}
		// Logistics, penalties and extra payments accrue regardless of the
		// document type.
		if row.DeliveryAmount != 0 || row.DeliveryRub != 0 || row.Penalty != 0 || row.AdditionalPayment != 0 {
			agg, ok := sales[key]
			if !ok {
				agg = &salesAgg{}
				sales[key] = agg
			}
			agg.deliveryCount += row.DeliveryAmount
			agg.deliveryCost = agg.deliveryCost.Add(decimal.NewFromFloat(row.DeliveryRub))
			agg.penalty = agg.penalty.Add(decimal.NewFromFloat(row.Penalty))
			agg.additional = agg.additional.Add(decimal.NewFromFloat(row.AdditionalPayment))
		}

		if row.Deduction != 0 {
			label := strings.ToLower(row.BonusTypeName)
			switch {
			case strings.Contains(label, labelDisposal):
				disposalTotal = disposalTotal.Add(decimal.NewFromFloat(row.Deduction))
			case strings.Contains(label, labelSubscription):
				subscriptionTotal = subscriptionTotal.Add(decimal.NewFromFloat(row.Deduction))
			}
		}
	}

	keys := make(map[string]struct{})
	for key := range sales {
		keys[key] = struct{}{}
	}
	for key := range returns {
		keys[key] = struct{}{}
	}
	for key := range src.Storage {
		keys[key] = struct{}{}
	}
	for key := range src.Acceptance.ByProduct {
		keys[key] = struct{}{}
	}
	for key := range src.Adverts {
		keys[key] = struct{}{}
	}
	if len(keys) == 0 {
		return nil
	}

	// Review debits name a product inside the label text when the
	// marketplace can attribute them; everything unattributable joins the
	// flat-split bucket together with the unclassified deductions. Rows
	// keyed to the sentinel product id 0 are the period's penalty total and
	// stay out of the "other" bucket.
	reviewByProduct := make(map[string]decimal.Decimal)
	reviewFlatTotal := decimal.Zero
	otherTotal := decimal.Zero
	for _, row := range src.Sales {
		if row.Deduction == 0 {
			continue
		}
		label := strings.ToLower(row.BonusTypeName)
		amount := decimal.NewFromFloat(row.Deduction)
		switch {
		case strings.Contains(label, labelDisposal),
			strings.Contains(label, labelSubscription),
			strings.Contains(label, labelAcceptance),
			strings.Contains(label, labelAdvertising):
			// Already categorized. Advertising lines are settled through the
			// billing documents, charging them here would double-debit.
		case strings.Contains(label, labelReview):
			id := reviewProductID.FindString(row.BonusTypeName)
			if _, ok := keys[strings.ToUpper(id)]; id != "" && ok {
				key := strings.ToUpper(id)
				reviewByProduct[key] = reviewByProduct[key].Add(amount)
			} else {
				reviewFlatTotal = reviewFlatTotal.Add(amount)
			}
		case row.NmID == 0:
			// Sentinel penalty total.
		default:
			otherTotal = otherTotal.Add(amount)
		}
	}

	count := decimal.NewFromInt(int64(len(keys)))
	disposalShare := disposalTotal.Div(count)
	subscriptionShare := subscriptionTotal.Div(count)
	reviewShare := reviewFlatTotal.Div(count)
	otherShare := otherTotal.Div(count)

	rows := make([]LedgerRow, 0, len(keys))
	for key := range keys {
		row := LedgerRow{
			ProductID:       key,
			Subscription:    subscriptionShare,
			Disposal:        disposalShare,
			ReviewDebit:     reviewShare.Add(reviewByProduct[key]),
			OtherDeductions: otherShare,
		}
		if agg, ok := sales[key]; ok {
			row.VendorCode = agg.vendorCode
			row.SaleQty = agg.qty
			row.RetailAmount = agg.retail
			row.ForPay = agg.forPay
			row.DeliveryCount = agg.deliveryCount
			row.DeliveryCost = agg.deliveryCost
			row.Penalty = agg.penalty
			row.AdditionalPayment = agg.additional
		}
		if agg, ok := returns[key]; ok {
			row.ReturnQty = agg.qty
			row.ReturnAmount = agg.amount
		}
		if storage, ok := src.Storage[key]; ok {
			row.Storage = storage.Total
			if row.VendorCode == "" {
				row.VendorCode = storage.VendorCode
			}
		}
		if acceptance, ok := src.Acceptance.ByProduct[key]; ok {
			row.Acceptance = acceptance
		}
		if advert, ok := src.Adverts[key]; ok {
			row.Advert = advert.Spend
		}
		if row.VendorCode == "" {
			if card, ok := src.Cards[key]; ok && card.VendorCode != "" {
				row.VendorCode = card.VendorCode
			} else {
				row.VendorCode = key
			}
		}
		row.Settlement = row.ForPay.
			Sub(row.DeliveryCost).
			Sub(row.Penalty).
			Add(row.AdditionalPayment).
			Sub(row.ReturnAmount).
			Sub(row.Storage).
			Sub(row.Advert).
			Sub(row.Subscription).
			Sub(row.Acceptance).
			Sub(row.Disposal).
			Sub(row.ReviewDebit).
			Sub(row.OtherDeductions)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ProductID < rows[j].ProductID
	})
	return rows
}
