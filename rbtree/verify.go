package rbtree

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Verify checks the red-black properties, the parent links, the key order and
// the size counter. It returns the first violation found.
func (t *Tree) Verify() error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "rbtree: verify a nil tree")
	}
	if t.root == nilIdx {
		if t.size != 0 {
			return errors.AssertionFailedf("empty tree reports size %d", t.size)
		}
		return nil
	}

	nodes := t.pool.nodes

	if p := nodes[t.root].parent; p != nilIdx {
		return errors.AssertionFailedf("root %d has parent %d", t.root, p)
	}
	if c := nodes[t.root].color; c != black {
		return errors.AssertionFailedf("root %d is %s", t.root, c)
	}

	count, _, err := t.verifyNode(t.root)
	if err != nil {
		return err
	}
	if count != t.size {
		return errors.AssertionFailedf("tree holds %d nodes but reports size %d", count, t.size)
	}

	var (
		prev  uint64
		first = true
	)
	_ = t.Enumerate(func(key uint64, _ any) bool {
		if !first && key <= prev {
			err = errors.AssertionFailedf("key %d follows %d", key, prev)
			return false
		}
		prev, first = key, false
		return true
	})

	return err
}

// verifyNode returns the subtree's node count and black-height.
func (t *Tree) verifyNode(idx int32) (int, int, error) {
	if idx == nilIdx {
		return 0, 1, nil
	}

	nodes := t.pool.nodes
	n := &nodes[idx]

	for _, child := range [2]int32{n.left, n.right} {
		if child == nilIdx {
			continue
		}
		if p := nodes[child].parent; p != idx {
			return 0, 0, errors.AssertionFailedf("node %d has parent %d, expected %d", child, p, idx)
		}
		if n.color == red && nodes[child].color == red {
			return 0, 0, errors.AssertionFailedf("red node %d has red child %d", idx, child)
		}
	}

	lcount, lheight, err := t.verifyNode(n.left)
	if err != nil {
		return 0, 0, err
	}
	rcount, rheight, err := t.verifyNode(n.right)
	if err != nil {
		return 0, 0, err
	}
	if lheight != rheight {
		return 0, 0, errors.AssertionFailedf(
			"node %d (key %d) has black-heights %d/%d", idx, n.key, lheight, rheight)
	}

	if n.color == black {
		lheight++
	}

	return lcount + rcount + 1, lheight, nil
}

// DebugDump writes the tree structure to w, one node per line.
func (t *Tree) DebugDump(w io.Writer) {
	if !t.valid() || t.root == nilIdx {
		fmt.Fprintln(w, "T: <empty>")
		return
	}
	t.debugDump(w, t.root, "T:", "")
}

func (t *Tree) debugDump(w io.Writer, idx int32, tag string, indent string) {
	n := &t.pool.nodes[idx]

	fmt.Fprintf(w, "%s%s %s key=%d val=%v\n", indent, tag, n.color, n.key, n.val)

	indent += strings.Repeat(" ", 2)
	if n.left != nilIdx {
		t.debugDump(w, n.left, "L:", indent)
	}
	if n.right != nilIdx {
		t.debugDump(w, n.right, "R:", indent)
	}
}
