// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

// hashEntry maps a tag to the chunk offset of the window that produced it.
// An empty entry is offset==0 && t==0, so the very first position of a
// chunk may be missed; that costs at most one candidate match.
type hashEntry struct {
	offset uint32
	t      uint32
}

// hashTable is the tag -> source-offset index: a flat linear-probed table
// that fills up and then self-prunes, always keeping the rarest
// (highest-bitness) tags the longest.
type hashTable struct {
	entries        []hashEntry
	bits           uint // table has 2^bits buckets
	count          uint
	limit          uint // 2/3 full at most
	minimumTagMask uint32
	tagCleanPtr    uint32
	maxChainLen    uint
	victimRound    uint // rotating cursor for duplicate-tag chain eviction
	sizedFor       uint // mbUsed this table was allocated for, for pool reuse
}

// newHashTable sizes a table so that 2^bits * sizeof(hashEntry) ~= mbUsed MiB.
func newHashTable(mbUsed, maxChainLen uint) *hashTable {
	const entrySize = 8 // uint32 + uint32
	want := mbUsed * (1024 * 1024 / entrySize)

	var hbits uint
	for (uint(1) << hbits) < want {
		hbits++
	}

	h := &hashTable{
		bits:        hbits,
		maxChainLen: maxChainLen,
		sizedFor:    mbUsed,
	}
	h.limit = (uint(1) << hbits) * 2 / 3
	h.entries = make([]hashEntry, uint(1)<<hbits)
	return h
}

// reset zeroes the table and rewinds culling state for a new chunk,
// reusing the backing array.
func (h *hashTable) reset(initialFreq uint) {
	for i := range h.entries {
		h.entries[i] = hashEntry{}
	}
	h.count = 0
	h.minimumTagMask = uint32(1)<<initialFreq - 1
	h.tagCleanPtr = 0
	h.victimRound = 0
}

func (h *hashTable) empty(i uint32) bool {
	e := h.entries[i]
	return e.offset == 0 && e.t == 0
}

func (h *hashTable) primaryHash(t uint32) uint32 {
	return t & (uint32(1)<<h.bits - 1)
}

// increaseMask sharpens a tag mask by one more required low bit.
func increaseMask(mask uint32) uint32 {
	return (mask << 1) | 1
}

func (h *hashTable) minimumBitness(t uint32) bool {
	better := increaseMask(h.minimumTagMask)
	return t&better != better
}

// lesserBitness reports whether tag a is culled before tag b: a has fewer
// trailing set bits than b, or the same count but a smaller value modulo
// the next mask.
func lesserBitness(a, b uint32) bool {
	var mask uint32
	for mask != ^uint32(0) {
		if a&b&mask != mask {
			break
		}
		mask = (mask << 1) | 1
	}
	return a&mask < b&mask
}

// insert places (t, offset) into the table, evicting or displacing
// occupants. Displaced entries are pushed onto an explicit work stack and
// the outer loop drains it, rather than reinserting recursively, so
// adversarial inputs (long displacement chains) grow a slice instead of
// the call stack. Termination: an occupant is only displaced when it has
// strictly lesser bitness than the incoming entry, so bitness strictly
// decreases along any displacement chain.
//
// The caller accounts the one net-new entry (hash_count++ before calling);
// insert itself only decrements when it destroys an occupant outright.
func (h *hashTable) insert(t uint32, offset uint32) {
	stack := []hashEntry{{t: t, offset: offset}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		mask := uint32(1)<<h.bits - 1
		idx := h.primaryHash(cur.t)
		victim := idx
		round := uint(0)

		for !h.empty(idx) {
			occupant := h.entries[idx]

			if h.minimumBitness(occupant.t) {
				// Due for cleaning anyway: just replace it. Rehashing it
				// might move it behind tagCleanPtr.
				h.count--
				break
			}

			if lesserBitness(occupant.t, cur.t) {
				// occupant will be culled before cur: it can't be allowed
				// to hide behind cur, so take its slot and reinsert it
				// from its own primary bucket.
				stack = append(stack, occupant)
				break
			}

			if occupant.t == cur.t {
				// Long runs of identical patterns produce identical tags;
				// cap the chain and discard a rotating victim among them.
				if round == h.victimRound {
					victim = idx
				}
				round++
				if round == h.maxChainLen {
					idx = victim
					h.count--
					h.victimRound++
					if h.victimRound == h.maxChainLen {
						h.victimRound = 0
					}
					break
				}
			}

			idx = (idx + 1) & mask
		}

		h.entries[idx] = cur
	}
}

// cleanOne evicts the first occupant (by sweep order) whose bitness is
// below the current floor, raising the floor once a full sweep finds
// nothing to evict. Returns the (possibly raised) tag mask required for
// future insertion-gate checks.
func (h *hashTable) cleanOne() uint32 {
	for {
		better := increaseMask(h.minimumTagMask)

		limit := uint32(1) << h.bits
		for ; h.tagCleanPtr < limit; h.tagCleanPtr++ {
			if h.empty(h.tagCleanPtr) {
				continue
			}
			if h.entries[h.tagCleanPtr].t&better != better {
				h.entries[h.tagCleanPtr] = hashEntry{}
				h.count--
				return better
			}
		}

		// Full sweep found nothing below the floor: raise it and re-sweep.
		h.minimumTagMask = better
		h.tagCleanPtr = 0
	}
}

// distribution summarizes occupancy for verbose logging: total entries,
// how many sit in their own primary bucket rather than having spilled into
// a probe chain, and a histogram of tag bitness (the ffs value from
// bitness(); culling ranks by trailing set bits instead, so gated tags,
// whose low bits are all set, land in bucket 1).
type tableDistribution struct {
	Total        uint
	PrimaryCount uint
	ByBitness    [33]uint
}

func (h *hashTable) distribution() tableDistribution {
	var d tableDistribution
	mask := uint32(1)<<h.bits - 1
	for i := uint32(0); i <= mask; i++ {
		if h.empty(i) {
			continue
		}
		d.Total++
		if h.primaryHash(h.entries[i].t) == i {
			d.PrimaryCount++
		}
		d.ByBitness[bitness(h.entries[i].t)]++
	}
	return d
}
