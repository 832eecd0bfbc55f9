package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/model"
)

func TestFinalizeListOptionsDefaults(t *testing.T) {
	opts, err := model.FinalizeListOptions(nil)
	require.NoError(t, err)

	require.NotNil(t, opts.Limit)
	assert.Equal(t, 300, *opts.Limit)
	assert.Nil(t, opts.Offset)
	require.NotNil(t, opts.OrderBy)
	assert.Equal(t, "id", opts.OrderBy.Column)
	assert.False(t, opts.OrderBy.Desc)
}

func TestFinalizeListOptionsMissingLimit(t *testing.T) {
	offset := 10
	opts, err := model.FinalizeListOptions(&model.ListOptions{Offset: &offset})
	require.NoError(t, err)

	require.NotNil(t, opts.Limit)
	assert.Equal(t, 300, *opts.Limit)
	require.NotNil(t, opts.Offset)
	assert.Equal(t, 10, *opts.Offset)
	assert.Nil(t, opts.OrderBy)
}

func TestFinalizeListOptionsKeepsLimit(t *testing.T) {
	limit := 500
	opts, err := model.FinalizeListOptions(&model.ListOptions{Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, 500, *opts.Limit)
}

func TestFinalizeListOptionsOverMax(t *testing.T) {
	limit := 1500
	_, err := model.FinalizeListOptions(&model.ListOptions{Limit: &limit})
	require.Error(t, err)
	assert.True(t, model.IsListLimitOverMax(err))
}

func TestParseOrderBy(t *testing.T) {
	ob := model.ParseOrderBy("title")
	assert.Equal(t, "title", ob.Column)
	assert.False(t, ob.Desc)

	ob = model.ParseOrderBy("!title")
	assert.Equal(t, "title", ob.Column)
	assert.True(t, ob.Desc)
}

func TestListOptionsJSON(t *testing.T) {
	var opts model.ListOptions
	err := json.Unmarshal([]byte(`{"limit": 2, "offset": 1, "order_by": "!id"}`), &opts)
	require.NoError(t, err)

	require.NotNil(t, opts.Limit)
	assert.Equal(t, 2, *opts.Limit)
	require.NotNil(t, opts.OrderBy)
	assert.Equal(t, "id", opts.OrderBy.Column)
	assert.True(t, opts.OrderBy.Desc)
}
