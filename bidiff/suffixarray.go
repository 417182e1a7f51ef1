// Copyright 2016 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bidiff

import (
	"bytes"
	"container/heap"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SortPartitions is the number of parallel workers used to build the suffix
// array: a conservative "assume 4 logical cores" default rather than a
// runtime-detected core count.
const SortPartitions = 3

// ScanChunkSize is the interval, in bytes of the target blob, at which
// diffBytes logs scan progress. The match scan itself is not split into
// chunks: it walks the whole target blob in a single sequential pass.
const ScanChunkSize = 512 * 1024

// buildSuffixArray returns the indices of data's suffixes in lexicographic
// order. It partitions the index space into SortPartitions chunks, sorts
// each chunk concurrently (joined via errgroup), and merges the sorted
// chunks with a k-way heap merge.
func buildSuffixArray(data []byte) []int {
	n := len(data)
	if n == 0 {
		return nil
	}

	parts := SortPartitions
	if parts > n {
		parts = n
	}
	if parts < 1 {
		parts = 1
	}

	chunkLen := (n + parts - 1) / parts
	chunks := make([][]int, parts)

	var g errgroup.Group
	for i := 0; i < parts; i++ {
		i := i
		start := i * chunkLen
		end := start + chunkLen
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		idx := make([]int, end-start)
		for j := range idx {
			idx[j] = start + j
		}
		chunks[i] = idx
		g.Go(func() error {
			sort.Slice(idx, func(a, b int) bool {
				return bytes.Compare(data[idx[a]:], data[idx[b]:]) < 0
			})
			return nil
		})
	}
	// buildSuffixArray has no failing step; the error is always nil, but we
	// still join the workers the way Diff joins the Bidiff sort phase.
	_ = g.Wait()

	return mergeSortedSuffixChunks(data, chunks)
}

// suffixHeapItem is one partially-consumed sorted chunk in the k-way merge.
type suffixHeapItem struct {
	chunk []int
	pos   int
}

type suffixHeap struct {
	data  []byte
	items []*suffixHeapItem
}

func (h *suffixHeap) Len() int { return len(h.items) }
func (h *suffixHeap) Less(i, j int) bool {
	a := h.items[i].chunk[h.items[i].pos]
	b := h.items[j].chunk[h.items[j].pos]
	return bytes.Compare(h.data[a:], h.data[b:]) < 0
}
func (h *suffixHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *suffixHeap) Push(x interface{}) {
	h.items = append(h.items, x.(*suffixHeapItem))
}
func (h *suffixHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func mergeSortedSuffixChunks(data []byte, chunks [][]int) []int {
	total := 0
	h := &suffixHeap{data: data}
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		total += len(c)
		heap.Push(h, &suffixHeapItem{chunk: c})
	}

	out := make([]int, 0, total)
	for h.Len() > 0 {
		top := h.items[0]
		out = append(out, top.chunk[top.pos])
		top.pos++
		if top.pos < len(top.chunk) {
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}
	return out
}

// longestMatch binary-searches sa (the suffix array of before) for the
// suffix with the longest common prefix against after[pos:], returning the
// matching offset into before and the match length. It checks both sides of
// the binary-search convergence point since the longest-prefix candidate is
// not necessarily the exact search target.
func longestMatch(sa []int, before, after []byte, pos int) (matchPos, matchLen int) {
	target := after[pos:]
	lo, hi := 0, len(sa)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(before[sa[mid]:], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	best := 0
	bestPos := -1
	for _, cand := range []int{lo - 1, lo, lo + 1} {
		if cand < 0 || cand >= len(sa) {
			continue
		}
		l := commonPrefixLen(before[sa[cand]:], target)
		if l > best {
			best = l
			bestPos = sa[cand]
		}
	}
	return bestPos, best
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
