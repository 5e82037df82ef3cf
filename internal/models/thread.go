package models

// AncestorChain is the path from the thread root (or the deepest collected
// ancestor) down to the target post's parent, root-first. HasMore is set
// when ancestors exist beyond the walk's depth cutoff.
type AncestorChain struct {
	Chain   []PostDTO `json:"chain"`
	HasMore bool      `json:"hasMore"`
}

// ChildThread is one top-level reply to the target post together with its
// collapsed linear continuation. Chain holds the replies-to-replies walked
// while each node had exactly one reply; HasMore is set when that linear
// chain continued past the depth cap.
type ChildThread struct {
	Post    PostDTO   `json:"post"`
	Chain   []PostDTO `json:"chain"`
	HasMore bool      `json:"hasMore"`
}

// ReplyChain is the bounded reconstruction of the thread around one post.
// The outer HasMore is set when the target has more top-level replies than
// the breadth cap.
type ReplyChain struct {
	Ancestors AncestorChain `json:"ancestors"`
	Post      PostDTO       `json:"post"`
	Children  []ChildThread `json:"children"`
	HasMore   bool          `json:"hasMore"`
}
