package pdfsplit

import "fmt"

// PageRange is an inclusive, 1-based interval of pages within one source document.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int { return r.End - r.Start + 1 }

// Pages lists the 1-based page numbers of the range in ascending order.
func (r PageRange) Pages() []int {
	out := make([]int, 0, r.Len())
	for p := r.Start; p <= r.End; p++ {
		out = append(out, p)
	}
	return out
}

func (r PageRange) String() string { return fmt.Sprintf("%d-%d", r.Start, r.End) }

// ChunkSpec is the unit of work for one output file.
type ChunkSpec struct {
	Index0 int       `json:"index0"`
	Index1 int       `json:"index1"`
	Range  PageRange `json:"range"`
}

// Partition splits pages 1..totalPages into contiguous windows of at most maxPages.
// Every window except possibly the last holds exactly maxPages pages.
func Partition(totalPages, maxPages int) ([]PageRange, error) {
	if maxPages <= 0 {
		return nil, errorf(KindInvalidArgument, "partition", "", "max pages must be > 0, got %d", maxPages)
	}
	if totalPages <= 0 {
		return nil, errorf(KindInvalidArgument, "partition", "", "total pages must be > 0, got %d", totalPages)
	}
	n := (totalPages + maxPages - 1) / maxPages
	ranges := make([]PageRange, 0, n)
	for start := 1; start <= totalPages; start += maxPages {
		end := start + maxPages - 1
		if end > totalPages {
			end = totalPages
		}
		ranges = append(ranges, PageRange{Start: start, End: end})
	}
	return ranges, nil
}

// Chunks numbers the ranges in order.
func Chunks(ranges []PageRange) []ChunkSpec {
	out := make([]ChunkSpec, len(ranges))
	for i, r := range ranges {
		out[i] = ChunkSpec{Index0: i, Index1: i + 1, Range: r}
	}
	return out
}
