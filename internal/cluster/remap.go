package cluster

import "sort"

// Mapping is the bijection from raw cluster labels to contiguous group
// indices ordered by ascending mean feature. It exists because GMM and
// k-means hand out arbitrary label ids: without the remap, bin numbers
// would not be comparable across runs or channels.
type Mapping struct {
	order []int       // Raw labels in ascending-mean order
	index map[int]int // Raw label -> 0-based group index
}

// Remap sorts the raw labels of a clustering result by ascending mean
// feature (ties broken by raw label) and assigns each its rank. Group 0
// (reported as bin 1) is always the dimmest group.
func Remap(res *Result) *Mapping {
	labels := make([]int, 0, len(res.Means))
	for lbl := range res.Means {
		labels = append(labels, lbl)
	}
	sort.Slice(labels, func(a, b int) bool {
		ma, mb := res.Means[labels[a]], res.Means[labels[b]]
		if ma != mb {
			return ma < mb
		}
		return labels[a] < labels[b]
	})

	m := &Mapping{
		order: labels,
		index: make(map[int]int, len(labels)),
	}
	for rank, lbl := range labels {
		m.index[lbl] = rank
	}
	return m
}

// Len returns the number of mapped groups.
func (m *Mapping) Len() int {
	return len(m.order)
}

// GroupOf returns the 0-based group index for a raw label, or -1 when the
// label is unknown.
func (m *Mapping) GroupOf(raw int) int {
	if idx, ok := m.index[raw]; ok {
		return idx
	}
	return -1
}

// GroupNumber returns the 1-based bin number for a raw label, or 0 when the
// label is unknown.
func (m *Mapping) GroupNumber(raw int) int {
	return m.GroupOf(raw) + 1
}

// RawLabels returns the raw labels in ascending-mean order.
func (m *Mapping) RawLabels() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}
