package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeMarshalDropsEmptyAttrs(t *testing.T) {
	data, err := json.Marshal(NewNode("message", nil, map[string]string{"a": "b"}))
	require.NoError(t, err)
	assert.JSONEq(t, `["message", null, {"a":"b"}]`, string(data))
}

func TestNodeMarshalNested(t *testing.T) {
	n := NewNode("chat", Attrs{"jid": "1@s.whatsapp.net", "type": "clear"}, []Node{
		NewNode("item", Attrs{"owner": "true", "index": "ABC"}, nil),
	})

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t,
		`["chat",{"jid":"1@s.whatsapp.net","type":"clear"},[["item",{"owner":"true","index":"ABC"},null]]]`,
		string(data))
}

func TestNodeUnmarshalChildren(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`["response",{"last":"true","skip":null},[["message",null,{"key":{"id":"X"}}]]]`), &n)
	require.NoError(t, err)

	assert.Equal(t, "response", n.Tag)
	assert.Equal(t, "true", n.Attr("last"))
	_, hasSkip := n.Attrs["skip"]
	assert.False(t, hasSkip)

	children := n.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "message", children[0].Tag)

	var info WebMessageInfo
	require.NoError(t, children[0].DecodeContent(&info))
	assert.Equal(t, "X", info.Key.ID)
}

func TestNodeUnmarshalPayload(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`["query",null,[1,2,3]]`), &n))
	assert.Nil(t, n.Children())

	var out []int
	require.NoError(t, n.DecodeContent(&out))
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestNodeUnmarshalEmpty(t *testing.T) {
	for _, in := range []string{`null`, `[]`, `["response"]`, `["response",null,null]`} {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Nil(t, n.Children(), in)
		assert.Nil(t, n.Attrs, in)
	}
}

func TestNodeUnmarshalRejectsObject(t *testing.T) {
	var n Node
	assert.Error(t, json.Unmarshal([]byte(`{"tag":"x"}`), &n))
}
