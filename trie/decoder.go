package trie

import (
	"errors"
	"fmt"

	"github.com/ethlayer/coreeth/rlp"
)

var errDecodeInvalid = errors.New("trie: invalid encoded node")

// decodeNode decodes an RLP-encoded trie node fetched from the database.
// hash is the node's own hash, cached on the result for reuse.
func decodeNode(hash hashNode, data []byte) (node, error) {
	if len(data) == 0 {
		return nil, errDecodeInvalid
	}
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, fmt.Errorf("trie: decode: %w", err)
	}
	var elems [][]byte
	for s.MoreDataInList() {
		elem, err := decodeElement(s)
		if err != nil {
			return nil, fmt.Errorf("trie: decode: %w", err)
		}
		elems = append(elems, elem)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}

	switch len(elems) {
	case 2:
		return decodeShort(hash, elems)
	case 17:
		return decodeFull(hash, elems)
	default:
		return nil, fmt.Errorf("%w: expected 2 or 17 elements, got %d", errDecodeInvalid, len(elems))
	}
}

// decodeElement reads one list element, returning its raw RLP encoding for
// nested lists (embedded nodes) and its bare payload for strings.
func decodeElement(s *rlp.Stream) ([]byte, error) {
	kind, _, err := s.Kind()
	if err != nil {
		return nil, err
	}
	if kind == rlp.List {
		raw, err := s.Raw()
		if err != nil {
			return nil, err
		}
		return raw, nil
	}
	return s.Bytes()
}

func decodeShort(hash hashNode, elems [][]byte) (node, error) {
	key := compactToHex(elems[0])
	if hasTerm(key) {
		return &shortNode{
			Key:   key,
			Val:   valueNode(elems[1]),
			flags: nodeFlag{hash: hash, dirty: false},
		}, nil
	}
	child, err := decodeRef(elems[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{
		Key:   key,
		Val:   child,
		flags: nodeFlag{hash: hash, dirty: false},
	}, nil
}

func decodeFull(hash hashNode, elems [][]byte) (node, error) {
	n := &fullNode{flags: nodeFlag{hash: hash, dirty: false}}
	for i := 0; i < 16; i++ {
		if len(elems[i]) == 0 {
			continue
		}
		child, err := decodeRef(elems[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	if len(elems[16]) > 0 {
		n.Children[16] = valueNode(elems[16])
	}
	return n, nil
}

// decodeRef decodes a child reference: a 32-byte hash, an embedded node
// (encoded inline because it was under 32 bytes), or nothing.
func decodeRef(data []byte) (node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) == 32 {
		return hashNode(data), nil
	}
	return decodeNode(nil, data)
}
