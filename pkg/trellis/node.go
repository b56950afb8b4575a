package trellis

import "fmt"

// ItemKind identifies what a Node item registers.
type ItemKind int

const (
	UseItem ItemKind = iota
	HandleItem
	MountItem
	StaticItem
)

// String returns the string representation of the item kind
func (k ItemKind) String() string {
	switch k {
	case UseItem:
		return "use"
	case HandleItem:
		return "handle"
	case MountItem:
		return "mount"
	case StaticItem:
		return "static"
	default:
		return "unknown"
	}
}

// Item is one ordered registration on a Node.
type Item struct {
	Kind ItemKind

	// UseItem and HandleItem
	Middlewares []MiddlewareFunc

	// HandleItem
	Method  Method
	Handler HandlerFunc

	// HandleItem, MountItem (prefix) and StaticItem
	Path string

	// MountItem
	Child *Node

	// StaticItem
	Dir string
}

// Node is the in-memory Router the registrars build. Each route produces an
// isolated Node that is mounted on its parent only once it is complete; the
// finished tree is handed to an engine adapter.
type Node struct {
	items    []Item
	endwares []MiddlewareFunc
}

// NewNode creates an empty root node
func NewNode() *Node {
	return &Node{}
}

// Child returns a fresh node.
func (n *Node) Child() Router {
	return NewNode()
}

// Mount attaches child at prefix. child must be a *Node.
func (n *Node) Mount(prefix string, child Router) {
	c, ok := child.(*Node)
	if !ok {
		panic(fmt.Sprintf("trellis: cannot mount %T on a *Node", child))
	}
	n.items = append(n.items, Item{Kind: MountItem, Path: prefix, Child: c})
}

// Handle registers an endpoint.
func (n *Node) Handle(method Method, path string, handler HandlerFunc, middlewares ...MiddlewareFunc) {
	n.items = append(n.items, Item{
		Kind:        HandleItem,
		Method:      method,
		Path:        path,
		Handler:     handler,
		Middlewares: middlewares,
	})
}

// Use records scope middleware.
func (n *Node) Use(middlewares ...MiddlewareFunc) {
	if len(middlewares) == 0 {
		return
	}
	n.items = append(n.items, Item{Kind: UseItem, Middlewares: middlewares})
}

// UseEnd records scope endwares.
func (n *Node) UseEnd(endwares ...MiddlewareFunc) {
	n.endwares = append(n.endwares, endwares...)
}

// Static records a static mount.
func (n *Node) Static(path, dir string) {
	n.items = append(n.items, Item{Kind: StaticItem, Path: path, Dir: dir})
}

// Items returns the registrations in order.
func (n *Node) Items() []Item {
	return n.items
}

// EffectiveItems returns the registrations in order with every handler
// shadowed by a later registration of the same method and path removed, so
// engines that reject or ignore duplicates still see last-wins behaviour.
func (n *Node) EffectiveItems() []Item {
	type key struct {
		method Method
		path   string
	}
	last := make(map[key]int)
	for i, item := range n.items {
		if item.Kind == HandleItem {
			last[key{item.Method, item.Path}] = i
		}
	}
	items := make([]Item, 0, len(n.items))
	for i, item := range n.items {
		if item.Kind == HandleItem && last[key{item.Method, item.Path}] != i {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Endwares returns the node's own endwares.
func (n *Node) Endwares() []MiddlewareFunc {
	return n.endwares
}

// EndwaresWithin returns the endwares that apply inside this node given the
// endwares inherited from its ancestors: innermost scope first.
func (n *Node) EndwaresWithin(inherited []MiddlewareFunc) []MiddlewareFunc {
	if len(n.endwares) == 0 {
		return inherited
	}
	out := make([]MiddlewareFunc, 0, len(n.endwares)+len(inherited))
	out = append(out, n.endwares...)
	return append(out, inherited...)
}

// RouteEntry is one row of the flattened mount table.
type RouteEntry struct {
	Method  Method
	Path    string
	Handler HandlerFunc // fully composed: scope middleware, endpoint middleware, handler, endwares
	Dir     string      // set for static mounts
}

// Routes flattens the tree into its mount table in registration order.
func (n *Node) Routes() []RouteEntry {
	return n.flatten("", nil, nil)
}

func (n *Node) flatten(prefix string, scope, inheritedEnd []MiddlewareFunc) []RouteEntry {
	var entries []RouteEntry
	end := n.EndwaresWithin(inheritedEnd)
	// copy so sibling scopes never share a backing array
	scope = append([]MiddlewareFunc(nil), scope...)

	for _, item := range n.items {
		switch item.Kind {
		case UseItem:
			scope = append(scope, item.Middlewares...)
		case HandleItem:
			chain := make([]MiddlewareFunc, 0, len(scope)+len(item.Middlewares))
			chain = append(chain, scope...)
			chain = append(chain, item.Middlewares...)
			entries = append(entries, RouteEntry{
				Method:  item.Method,
				Path:    JoinPath(prefix, item.Path),
				Handler: Chain(chain...)(WithEndwares(item.Handler, end...)),
			})
		case MountItem:
			entries = append(entries, item.Child.flatten(JoinPath(prefix, item.Path), scope, end)...)
		case StaticItem:
			entries = append(entries, RouteEntry{
				Method: GET,
				Path:   JoinPath(prefix, item.Path),
				Dir:    item.Dir,
			})
		}
	}
	return entries
}

// Lookup returns the composed handler registered for method and the full
// path, matching paths literally.
func (n *Node) Lookup(method Method, path string) (HandlerFunc, bool) {
	var found HandlerFunc
	for _, entry := range n.Routes() {
		if entry.Handler == nil || entry.Path != path {
			continue
		}
		if entry.Method == method || entry.Method == ALL {
			// later registrations win
			found = entry.Handler
		}
	}
	return found, found != nil
}
