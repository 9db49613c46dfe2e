package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

// Decoding failures wrapped by MalformedError.
var (
	ErrUnknownShape     = errors.New("value is neither a digest string nor a mapping")
	ErrInvalidComponent = errors.New("invalid path component")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrAlias            = errors.New("yaml aliases are not supported")
	errInvalidNode      = errors.New("node has no variant")
)

// MalformedError reports a snapshot document that does not decode into a
// tree. Path is the slash-joined location of the offending value.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed snapshot: %v", e.Err)
	}
	return fmt.Sprintf("malformed snapshot at %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// within re-roots a child's decode error under key.
func within(key string, err error) error {
	var me *MalformedError
	if errors.As(err, &me) {
		path := key
		if me.Path != "" {
			path = key + "/" + me.Path
		}
		return &MalformedError{Path: path, Err: me.Err}
	}
	return &MalformedError{Path: key, Err: err}
}

func validComponent(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// MarshalJSON writes a Leaf as its hex digest and a Directory as an object.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case KindLeaf:
		return json.Marshal(n.digest.String())
	case KindDirectory:
		return n.contents.MarshalJSON()
	default:
		return nil, errInvalidNode
	}
}

// UnmarshalJSON decodes a string as a Leaf and an object as a Directory.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &MalformedError{Err: err}
		}
		d, err := digest.Parse(s)
		if err != nil {
			return &MalformedError{Err: err}
		}
		*n = Node{kind: KindLeaf, digest: d}
		return nil
	}

	if len(data) > 0 && data[0] == '{' {
		c := new(Contents)
		if err := c.UnmarshalJSON(data); err != nil {
			return err
		}
		*n = Node{kind: KindDirectory, contents: c}
		return nil
	}

	return &MalformedError{Err: ErrUnknownShape}
}

// MarshalJSON writes the children as an object with sorted keys.
func (c *Contents) MarshalJSON() ([]byte, error) {
	if c == nil || c.items == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.items)
}

// UnmarshalJSON decodes an object of name to node. Keys are read as
// tokens so a repeated key is rejected instead of silently overwritten.
func (c *Contents) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return &MalformedError{Err: ErrUnknownShape}
	}

	items := make(map[string]*Node)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &MalformedError{Err: err}
		}
		key, ok := tok.(string)
		if !ok || !validComponent(key) {
			return &MalformedError{Path: key, Err: ErrInvalidComponent}
		}
		if _, dup := items[key]; dup {
			return &MalformedError{Path: key, Err: ErrDuplicateKey}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return within(key, err)
		}
		child := new(Node)
		if err := child.UnmarshalJSON(raw); err != nil {
			return within(key, err)
		}
		items[key] = child
	}
	c.items = items
	return nil
}

// MarshalYAML writes a Leaf as a hex scalar and a Directory as a mapping.
func (n *Node) MarshalYAML() (interface{}, error) {
	switch n.kind {
	case KindLeaf:
		return n.digest.String(), nil
	case KindDirectory:
		return n.contents.MarshalYAML()
	default:
		return nil, errInvalidNode
	}
}

// UnmarshalYAML decodes a scalar as a Leaf and a mapping as a Directory.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.AliasNode:
		return &MalformedError{Err: fmt.Errorf("%w: *%s at line %d", ErrAlias, value.Value, value.Line)}
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return &MalformedError{Err: ErrUnknownShape}
		}
		d, err := digest.Parse(value.Value)
		if err != nil {
			return &MalformedError{Err: err}
		}
		*n = Node{kind: KindLeaf, digest: d}
		return nil
	case yaml.MappingNode:
		c := new(Contents)
		if err := c.UnmarshalYAML(value); err != nil {
			return err
		}
		*n = Node{kind: KindDirectory, contents: c}
		return nil
	default:
		return &MalformedError{Err: ErrUnknownShape}
	}
}

// MarshalYAML writes the children as a mapping; yaml.v3 sorts the keys.
func (c *Contents) MarshalYAML() (interface{}, error) {
	if c == nil || c.items == nil {
		return map[string]*Node{}, nil
	}
	return c.items, nil
}

// UnmarshalYAML decodes a mapping of name to node.
func (c *Contents) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.DocumentNode:
		if len(value.Content) == 0 {
			c.items = make(map[string]*Node)
			return nil
		}
		return c.UnmarshalYAML(value.Content[0])
	case yaml.AliasNode:
		return &MalformedError{Err: fmt.Errorf("%w: *%s at line %d", ErrAlias, value.Value, value.Line)}
	case yaml.MappingNode:
	default:
		return &MalformedError{Err: ErrUnknownShape}
	}

	items := make(map[string]*Node, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return &MalformedError{Err: fmt.Errorf("%w: non-scalar key at line %d", ErrInvalidComponent, keyNode.Line)}
		}
		key := keyNode.Value
		if !validComponent(key) {
			return &MalformedError{Path: key, Err: ErrInvalidComponent}
		}
		if _, dup := items[key]; dup {
			return &MalformedError{Path: key, Err: ErrDuplicateKey}
		}
		child := new(Node)
		if err := child.UnmarshalYAML(valNode); err != nil {
			return within(key, err)
		}
		items[key] = child
	}
	c.items = items
	return nil
}
