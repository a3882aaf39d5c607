package rpgtl

import "github.com/ZaguanLabs/rpgtl/document"

// SetText overwrites the value at path with text. It returns false, without
// touching the document, when any segment cannot be resolved.
func SetText(root any, path Path, text string) bool {
	if len(path) == 0 {
		return false
	}

	parent, ok := resolve(root, path[:len(path)-1])
	if !ok {
		return false
	}

	last := path[len(path)-1]
	switch node := parent.(type) {
	case *document.Object:
		if last.IsIndex() || node == nil || !node.Has(last.KeyName()) {
			return false
		}
		node.Set(last.KeyName(), text)
		return true
	case []any:
		if !last.IsIndex() || last.Position() < 0 || last.Position() >= len(node) {
			return false
		}
		node[last.Position()] = text
		return true
	default:
		return false
	}
}

// GetText returns the string stored at path.
func GetText(root any, path Path) (string, bool) {
	node, ok := resolve(root, path)
	if !ok {
		return "", false
	}
	s, ok := node.(string)
	return s, ok
}

// resolve follows path from root.
func resolve(root any, path Path) (any, bool) {
	node := root
	for _, seg := range path {
		next, ok := child(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

func child(node any, seg Segment) (any, bool) {
	switch n := node.(type) {
	case *document.Object:
		if seg.IsIndex() || n == nil {
			return nil, false
		}
		return n.Get(seg.KeyName())
	case []any:
		if !seg.IsIndex() || seg.Position() < 0 || seg.Position() >= len(n) {
			return nil, false
		}
		return n[seg.Position()], true
	default:
		return nil, false
	}
}
