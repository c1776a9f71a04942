package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise-labs/guidance-cli/internal/store"
)

func TestPhaseFilter(t *testing.T) {
	f, err := phaseFilter(1)
	require.NoError(t, err)
	assert.Equal(t, store.BackfillFilter{MaxLanguagePriority: 1, StyleKey: "plain"}, f)

	f, err = phaseFilter(2)
	require.NoError(t, err)
	assert.Equal(t, store.BackfillFilter{MaxLanguagePriority: 3}, f)

	f, err = phaseFilter(3)
	require.NoError(t, err)
	assert.Equal(t, store.BackfillFilter{}, f)

	f, err = phaseFilter(0)
	require.NoError(t, err)
	assert.Equal(t, store.BackfillFilter{}, f)

	_, err = phaseFilter(7)
	assert.Error(t, err)
}
