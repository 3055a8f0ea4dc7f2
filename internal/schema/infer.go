// Package schema derives a structural description of a dataset from its first
// element. It is a preview, not validation: only one sample is inspected.
package schema

import (
	"github.com/alvianzf/jsonify/internal/record"
)

// ArrayMarker is the child name under which an array's element shape is
// recorded.
const ArrayMarker = "[]"

// Node is either a leaf naming a runtime type ("string", "number", "boolean",
// "object") or an ordered set of named child nodes. The zero Node is an empty
// branch.
type Node struct {
	typ      string
	children []Field
}

// Field is one named child of a branch Node.
type Field struct {
	Name string
	Node Node
}

// Leaf returns a leaf node for typ.
func Leaf(typ string) Node { return Node{typ: typ} }

// Branch returns a branch node with the given children, in order.
func Branch(fields ...Field) Node { return Node{children: fields} }

// IsLeaf reports whether n names a type.
func (n Node) IsLeaf() bool { return n.typ != "" }

// Type returns the type name of a leaf, or "" for a branch.
func (n Node) Type() string { return n.typ }

// Fields returns the children of a branch in order.
func (n Node) Fields() []Field { return n.children }

// Child returns the child called name.
func (n Node) Child(name string) (Node, bool) {
	for _, f := range n.children {
		if f.Name == name {
			return f.Node, true
		}
	}
	return Node{}, false
}

// Infer describes the shape of ds[0].
//
// Rules:
//   - empty dataset: empty node
//   - array sample: {"[]": shape of its first element}, or an empty node when
//     the array is empty
//   - object sample: one child per key; object and array values recurse,
//     scalars map to their runtime type name (null reports "object")
//   - any other sample: empty node
func Infer(ds record.Dataset) Node {
	if len(ds) == 0 {
		return Node{}
	}
	return describe(ds[0])
}

func describe(v record.Value) Node {
	switch v.Kind() {
	case record.KindArray:
		items, _ := v.AsArray()
		if len(items) == 0 {
			return Node{}
		}
		return Branch(Field{Name: ArrayMarker, Node: describe(items[0])})

	case record.KindObject:
		obj, _ := v.AsObject()
		fields := make([]Field, 0, obj.Len())
		obj.Each(func(k string, child record.Value) bool {
			var n Node
			if child.IsScalar() {
				n = Leaf(record.TypeName(child))
			} else {
				n = describe(child)
			}
			fields = append(fields, Field{Name: k, Node: n})
			return true
		})
		return Branch(fields...)
	}
	return Node{}
}

// MarshalJSON renders a leaf as its type name and a branch as an object.
func (n Node) MarshalJSON() ([]byte, error) {
	return record.Marshal(n.Value()), nil
}

// Value converts n into a record.Value with the same JSON shape.
func (n Node) Value() record.Value {
	if n.IsLeaf() {
		return record.String(n.typ)
	}
	r := record.NewRecord(len(n.children))
	for _, f := range n.children {
		r.Set(f.Name, f.Node.Value())
	}
	return record.Object(r)
}
