package primebloom

import bloomerrors "github.com/tamirms/primebloom/errors"

// Add inserts data into the filter, setting bit hash%len_i in every
// partition i. There is no capacity ceiling: adding past Capacity succeeds
// and only raises the false positive rate.
//
// Returns ErrEmptyData for empty data, ErrFilterClosed after Close and
// ErrReadOnly for read-only mappings.
func (f *Filter) Add(data []byte) error {
	if err := f.checkKey(data); err != nil {
		return err
	}
	if f.readOnly {
		return bloomerrors.ErrReadOnly
	}

	h := f.hash.Sum64(data, f.seed)
	for i, length := range f.lengths {
		bit := h % length
		f.bits[f.offsets[i]+bit/8] |= 1 << (bit % 8)
	}
	f.count++
	return nil
}

// Test reports whether data may be in the set. false means definitely
// absent; true means possibly present. It stops at the first partition whose
// bit is clear, so its running time depends on the key.
func (f *Filter) Test(data []byte) (bool, error) {
	if err := f.checkKey(data); err != nil {
		return false, err
	}

	h := f.hash.Sum64(data, f.seed)
	for i, length := range f.lengths {
		bit := h % length
		if f.bits[f.offsets[i]+bit/8]&(1<<(bit%8)) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// TestConstantTime classifies data exactly like Test but always probes all
// k partitions and folds the results without branching, so the work done
// does not reveal which partition, if any, rejected the key.
func (f *Filter) TestConstantTime(data []byte) (bool, error) {
	if err := f.checkKey(data); err != nil {
		return false, err
	}

	h := f.hash.Sum64(data, f.seed)
	var miss byte
	for i, length := range f.lengths {
		bit := h % length
		miss |= ^(f.bits[f.offsets[i]+bit/8] >> (bit % 8)) & 1
	}
	return miss == 0, nil
}

func (f *Filter) checkKey(data []byte) error {
	if f.closed {
		return bloomerrors.ErrFilterClosed
	}
	if len(data) == 0 {
		return bloomerrors.ErrEmptyData
	}
	return nil
}
