package rbtree

func (t *Tree) colorOf(idx int32) color {
	if idx == nilIdx {
		return black
	}
	return t.pool.nodes[idx].color
}

func (t *Tree) sibling(idx int32) int32 {
	nodes := t.pool.nodes
	parent := nodes[idx].parent

	if nodes[parent].left == idx {
		return nodes[parent].right
	}
	return nodes[parent].left
}

// insertFixup restores the red-black properties after x was attached as a red leaf.
func (t *Tree) insertFixup(x int32) {
	nodes := t.pool.nodes

	for {
		parent := nodes[x].parent

		// Case 1: x is the root.
		if parent == nilIdx {
			nodes[x].color = black
			return
		}

		// Case 2: the parent is black, nothing is violated.
		if nodes[parent].color == black {
			return
		}

		// a red parent is never the root, so the grandparent exists
		grand := nodes[parent].parent
		uncle := t.sibling(parent)

		// Case 3: parent and uncle are both red - push the violation upwards.
		if t.colorOf(uncle) == red {
			nodes[parent].color = black
			nodes[uncle].color = black
			nodes[grand].color = red
			x = grand

			continue
		}

		// Case 4: x is an inner grandchild - straighten the zig-zag.
		if x == nodes[parent].right && parent == nodes[grand].left {
			t.rotateLeft(parent)
			x, parent = parent, x
		} else if x == nodes[parent].left && parent == nodes[grand].right {
			t.rotateRight(parent)
			x, parent = parent, x
		}

		// Case 5: x is an outer grandchild.
		nodes[parent].color = black
		nodes[grand].color = red

		if x == nodes[parent].left {
			t.rotateRight(grand)
		} else {
			t.rotateLeft(grand)
		}

		return
	}
}

// deleteFixup restores the black-height around x, a black node that is about
// to be spliced out (or an ancestor carrying its deficit).
func (t *Tree) deleteFixup(x int32) {
	nodes := t.pool.nodes

	for {
		parent := nodes[x].parent

		// Case 1: x is the root, the deficit is global.
		if parent == nilIdx {
			return
		}

		// the deficit guarantees a non-nil sibling
		sib := t.sibling(x)

		// Case 2: red sibling - rotate it above the parent.
		if nodes[sib].color == red {
			nodes[parent].color = red
			nodes[sib].color = black

			if x == nodes[parent].left {
				t.rotateLeft(parent)
			} else {
				t.rotateRight(parent)
			}
			sib = t.sibling(x)
		}

		nephewsBlack := t.colorOf(nodes[sib].left) == black && t.colorOf(nodes[sib].right) == black

		// Case 3: everything around is black - move the deficit to the parent.
		if nodes[parent].color == black && nodes[sib].color == black && nephewsBlack {
			nodes[sib].color = red
			x = parent

			continue
		}

		// Case 4: red parent, black sibling and nephews - swap colors.
		if nodes[parent].color == red && nodes[sib].color == black && nephewsBlack {
			nodes[sib].color = red
			nodes[parent].color = black

			return
		}

		// Case 5: only the near nephew is red - rotate it into the far position.
		if x == nodes[parent].left && t.colorOf(nodes[sib].right) == black {
			nodes[sib].color = red
			nodes[nodes[sib].left].color = black
			t.rotateRight(sib)
			sib = nodes[parent].right
		} else if x == nodes[parent].right && t.colorOf(nodes[sib].left) == black {
			nodes[sib].color = red
			nodes[nodes[sib].right].color = black
			t.rotateLeft(sib)
			sib = nodes[parent].left
		}

		// Case 6: the far nephew is red.
		nodes[sib].color = nodes[parent].color
		nodes[parent].color = black

		if x == nodes[parent].left {
			nodes[nodes[sib].right].color = black
			t.rotateLeft(parent)
		} else {
			nodes[nodes[sib].left].color = black
			t.rotateRight(parent)
		}

		return
	}
}

// rotateLeft lifts the right child of x into x's place.
//
//	  X              Y
//	A   Y    =>    X   C
//	   B C        A B
func (t *Tree) rotateLeft(x int32) {
	nodes := t.pool.nodes
	y := nodes[x].right

	nodes[x].right = nodes[y].left
	if inner := nodes[y].left; inner != nilIdx {
		nodes[inner].parent = x
	}

	t.replace(x, y)

	nodes[y].left = x
	nodes[x].parent = y
}

// rotateRight lifts the left child of y into y's place.
//
//	    Y            X
//	  X   C  =>    A   Y
//	 A B              B C
func (t *Tree) rotateRight(y int32) {
	nodes := t.pool.nodes
	x := nodes[y].left

	nodes[y].left = nodes[x].right
	if inner := nodes[x].right; inner != nilIdx {
		nodes[inner].parent = y
	}

	t.replace(y, x)

	nodes[x].right = y
	nodes[y].parent = x
}
