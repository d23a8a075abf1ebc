package mepsparser

import "github.com/shopspring/decimal"

// reconciliationTolerance is the maximum absolute difference allowed
// between declared trailer totals and the totals computed from the
// detail records.
var reconciliationTolerance = decimal.New(1, -2) // 0.01

// validateFile checks whole-file consistency after every line has been
// consumed. Checks run in a fixed order and the first violation wins:
// record presence, record count, net-amount total, fee total.
func validateFile(f *File, hasHeader, hasTrailer bool) error {
	if !hasHeader {
		return validationErrorf("missing header record")
	}
	if !hasTrailer {
		return validationErrorf("missing trailer record")
	}
	if len(f.Details) == 0 {
		return validationErrorf("no detail records found")
	}

	if len(f.Details) != f.Trailer.TotalRecords {
		return validationErrorf("record count mismatch: trailer declares %d, file has %d",
			f.Trailer.TotalRecords, len(f.Details))
	}

	totalAmount := f.TotalAmount()
	totalFees := f.TotalFees()

	expectedNet := totalAmount.Sub(totalFees)
	if expectedNet.Sub(f.Trailer.TotalAmount).Abs().GreaterThan(reconciliationTolerance) {
		return validationErrorf("amount mismatch: computed net total %s, trailer declares %s",
			expectedNet, f.Trailer.TotalAmount)
	}

	if totalFees.Sub(f.Trailer.TotalFees).Abs().GreaterThan(reconciliationTolerance) {
		return validationErrorf("fee mismatch: computed total %s, trailer declares %s",
			totalFees, f.Trailer.TotalFees)
	}

	return nil
}
