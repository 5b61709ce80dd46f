package products

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDKeepsJSONKind(t *testing.T) {
	var numeric, text ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &numeric))
	require.NoError(t, json.Unmarshal([]byte(`"sku-42"`), &text))

	assert.Equal(t, NumericID(42), numeric)
	assert.Equal(t, StringID("sku-42"), text)
	assert.NotEqual(t, NumericID(42), StringID("42"))

	raw, err := json.Marshal(numeric)
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(raw))

	raw, err = json.Marshal(text)
	require.NoError(t, err)
	assert.JSONEq(t, `"sku-42"`, string(raw))
}

func TestIDCanonicalizesNumbers(t *testing.T) {
	for _, raw := range []string{`1`, `1.0`, `1e0`, `10e-1`} {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(raw), &id), raw)
		assert.Equal(t, NumericID(1), id, raw)
	}

	var fractional ID
	require.NoError(t, json.Unmarshal([]byte(`2.50`), &fractional))
	assert.Equal(t, "2.5", fractional.String())
}

func TestIDRejectsGarbage(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
}

func TestProductPreservesUnknownFields(t *testing.T) {
	payload := `{"id":7,"title":"Lamp","price":19.99,"discountPercentage":12.5,"tags":["home"],"thumbnail":"https://cdn/7.png"}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	assert.Equal(t, NumericID(7), p.ID)
	assert.Equal(t, "Lamp", p.Title)
	assert.InDelta(t, 19.99, p.Price, 1e-9)
	assert.Equal(t, "https://cdn/7.png", p.Thumbnail)
	require.Contains(t, p.Attributes, "discountPercentage")
	require.Contains(t, p.Attributes, "tags")

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}

func TestProductWithoutDoesNotMutateSource(t *testing.T) {
	p := Product{
		ID:         NumericID(1),
		Attributes: map[string]json.RawMessage{"quantity": json.RawMessage(`3`)},
	}
	stripped := p.Without("quantity")

	assert.Nil(t, stripped.Attributes)
	assert.Contains(t, p.Attributes, "quantity")
}

func TestExcludeAndCap(t *testing.T) {
	list := make([]Product, 0, 8)
	for i := int64(1); i <= 8; i++ {
		list = append(list, Product{ID: NumericID(i)})
	}

	got := ExcludeAndCap(list, NumericID(2), 5)
	require.Len(t, got, 5)
	assert.Equal(t, -1, IndexOf(got, NumericID(2)))
	assert.Equal(t, NumericID(6), got[4].ID)

	assert.Len(t, ExcludeAndCap(list, NumericID(99), 0), 8)
	assert.Equal(t, 3, IndexOf(list, NumericID(4)))
}
