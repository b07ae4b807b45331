package main

import (
	"fmt"
	"os"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/rbtree"
)

func main() {
	budget := alloc.NewBudget(4 << 10)

	t, err := rbtree.New(rbtree.WithAllocator(budget))
	if err != nil {
		panic(err)
	}
	defer t.Destroy()

	for _, key := range []uint64{10, 20, 5, 15, 1, 7, 30} {
		if err := t.Insert(key, fmt.Sprintf("v%d", key)); err != nil {
			panic(err)
		}
	}
	//_ = t.Insert(10, "again") // ErrAlreadyExists

	t.DebugDump(os.Stdout)

	fmt.Printf("budget: %d of %d\n", budget.Used(), budget.Capacity())

	println("------")

	val, _ := t.Remove(10)
	fmt.Printf("removed 10 -> %v\n", val)

	t.DebugDump(os.Stdout)

	println("------")

	_ = t.Enumerate(func(key uint64, val any) bool {
		fmt.Printf("%d = %v\n", key, val)
		return key < 15
	})

	lo, _, _ := t.Min()
	hi, _, _ := t.Max()
	fmt.Printf("min %d max %d len %d\n", lo, hi, t.Len())

	if err := t.Verify(); err != nil {
		fmt.Printf("verify: %v\n", err)
	}
}
