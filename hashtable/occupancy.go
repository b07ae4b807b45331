package hashtable

import "github.com/hideo55/go-popcount"

// occupancy is a bitmap with one bit per bucket, set while the bucket is non-empty.
type occupancy []uint64

func newOccupancy(buckets int) occupancy {
	return make(occupancy, (buckets+63)>>6)
}

func (o occupancy) set(idx int) {
	o[idx>>6] |= 1 << (uint(idx) & 0x3F) // 3F == 0011 1111
}

func (o occupancy) clear(idx int) {
	o[idx>>6] &^= 1 << (uint(idx) & 0x3F)
}

func (o occupancy) has(idx int) bool {
	return (o[idx>>6]>>(uint(idx)&0x3F))&0x01 != 0
}

// count returns the number of set bits.
func (o occupancy) count() int {
	cnt := 0
	for _, word := range o {
		cnt += int(popcount.Count(word))
	}
	return cnt
}

// size is the bitmap's footprint in bytes.
func (o occupancy) size() int64 {
	return int64(len(o)) * 8
}
