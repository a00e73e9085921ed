package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	Metric uint8
	Flag   uint8

	// Tags are the metric/flag pair the transport attaches to a frame.
	Tags struct {
		Metric Metric
		Flag   Flag
	}

	Attrs map[string]string

	// Node is the (tag, attributes, content) triple used for control frames.
	// Content is nil, a []Node, or any JSON payload.
	Node struct {
		Tag     string
		Attrs   Attrs
		Content any
	}

	// Response is the minimal reply to an action or relay.
	Response struct {
		Status int             `json:"status"`
		Raw    json.RawMessage `json:"-"`
	}
)

const (
	MetricQueryMedia    Metric = 4
	MetricQueryMessages Metric = 7
	MetricGroup         Metric = 10
	MetricRead          Metric = 11
	MetricChat          Metric = 12
	MetricMessage       Metric = 16

	FlagSkipOffline Flag = 1 << 2
	FlagAcknowledge Flag = 1 << 6
	FlagIgnore      Flag = 1 << 7
)

func NewNode(tag string, attrs Attrs, content any) Node {
	return Node{Tag: tag, Attrs: attrs, Content: content}
}

func (n Node) Attr(key string) string {
	return n.Attrs[key]
}

// Children returns the child nodes, or nil when the content is a payload.
func (n Node) Children() []Node {
	children, _ := n.Content.([]Node)
	return children
}

// DecodeContent decodes a payload content into v.
func (n Node) DecodeContent(v any) error {
	switch c := n.Content.(type) {
	case nil:
		return fmt.Errorf("node %q has no content", n.Tag)
	case json.RawMessage:
		return json.Unmarshal(c, v)
	default:
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
}

func (n Node) MarshalJSON() ([]byte, error) {
	var attrs any
	if len(n.Attrs) > 0 {
		attrs = map[string]string(n.Attrs)
	}
	return json.Marshal([]any{n.Tag, attrs, n.Content})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	*n = Node{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return fmt.Errorf("node must be a json array: %w", err)
	}
	if len(parts) == 0 {
		return nil
	}

	if err := json.Unmarshal(parts[0], &n.Tag); err != nil {
		return fmt.Errorf("node tag: %w", err)
	}

	if len(parts) > 1 {
		var attrs map[string]*string
		if err := json.Unmarshal(parts[1], &attrs); err != nil {
			return fmt.Errorf("node %q attrs: %w", n.Tag, err)
		}
		for k, v := range attrs {
			if v == nil {
				continue
			}
			if n.Attrs == nil {
				n.Attrs = make(Attrs, len(attrs))
			}
			n.Attrs[k] = *v
		}
	}

	if len(parts) > 2 {
		content := bytes.TrimSpace(parts[2])
		if len(content) == 0 || bytes.Equal(content, []byte("null")) {
			return nil
		}
		if children, ok := decodeChildren(content); ok {
			n.Content = children
			return nil
		}
		n.Content = json.RawMessage(content)
	}
	return nil
}

// decodeChildren accepts content shaped like [[tag, ...], ...].
func decodeChildren(content []byte) ([]Node, bool) {
	if content[0] != '[' {
		return nil, false
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(content, &raws); err != nil {
		return nil, false
	}

	children := make([]Node, 0, len(raws))
	for _, raw := range raws {
		var head []json.RawMessage
		if err := json.Unmarshal(raw, &head); err != nil || len(head) == 0 {
			return nil, false
		}
		var tag string
		if err := json.Unmarshal(head[0], &tag); err != nil {
			return nil, false
		}

		var child Node
		if err := child.UnmarshalJSON(raw); err != nil {
			return nil, false
		}
		children = append(children, child)
	}
	return children, true
}
