// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"math"
	"testing"

	"github.com/DataDog/tdigest-go/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilderInvalidCompression(t *testing.T) {
	b, err := NewBuilder(0)
	assert.ErrorIs(t, err, ErrInvalidCompression)
	assert.Nil(t, b)
}

func TestPushNonFinite(t *testing.T) {
	b, err := NewBuilder(testCompression)
	require.NoError(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, b.Push(v), ErrNonFiniteValue)
	}

	// Rejected values leave no trace.
	d, err := b.Build()
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
}

func TestUseAfterBuild(t *testing.T) {
	assert := assert.New(t)
	b, err := NewBuilder(testCompression)
	require.NoError(t, err)
	require.NoError(t, b.Push(1))
	_, err = b.Build()
	require.NoError(t, err)

	assert.ErrorIs(b.Push(2), ErrBuilderConsumed)
	_, err = b.Build()
	assert.ErrorIs(err, ErrBuilderConsumed)

	other, err := NewBuilder(testCompression)
	require.NoError(t, err)
	assert.ErrorIs(b.Merge(other), ErrBuilderConsumed)
	assert.ErrorIs(other.Merge(b), ErrBuilderConsumed)
}

func TestBuilderMerge(t *testing.T) {
	gen := dataset.NewNormal(50, 5)
	data := dataset.NewDataset()
	a, err := NewBuilder(testCompression)
	require.NoError(t, err)
	b, err := NewBuilder(testCompression)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		v := gen.Generate()
		require.NoError(t, a.Push(v))
		data.Add(v)
		v = gen.Generate()
		require.NoError(t, b.Push(v))
		data.Add(v)
	}

	require.NoError(t, a.Merge(b))

	// The absorbed builder is consumed.
	assert.ErrorIs(t, b.Push(1), ErrBuilderConsumed)

	d, err := a.Build()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), d.Count())
	assertDigestAccurate(t, data, d)
	assertDigestInvariants(t, d)
}

func TestBuilderMergeEmpty(t *testing.T) {
	a, err := NewBuilder(testCompression)
	require.NoError(t, err)
	require.NoError(t, a.Push(1))
	empty, err := NewBuilder(testCompression)
	require.NoError(t, err)

	require.NoError(t, a.Merge(empty))
	d, err := a.Build()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Count())
}

// Pushes are batched: the pending buffer drains through the insertion path
// once it holds a full compression's worth of values.
func TestPendingBufferFlush(t *testing.T) {
	assert := assert.New(t)
	b, err := NewBuilder(10)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		require.NoError(t, b.Push(float64(i)))
	}
	assert.Len(b.pending, 9)
	assert.Equal(uint64(0), b.count)

	require.NoError(t, b.Push(9))
	assert.Empty(b.pending)
	assert.Equal(uint64(10), b.count)
}
