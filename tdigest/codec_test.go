// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeDigest(t *testing.T, lo, hi int) *TDigest {
	values := make([]float64, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		values = append(values, float64(i))
	}
	return buildDigest(t, 100, values)
}

func TestEncodeGolden(t *testing.T) {
	d := rangeDigest(t, 1, 100)

	var expected strings.Builder
	expected.WriteString("tdigest/v1 compression=100 count=100 min=1 max=100 centroids=100")
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&expected, " %d:1", i)
	}
	assert.Equal(t, expected.String(), d.Encode())
}

func TestEncodeEmpty(t *testing.T) {
	d := buildDigest(t, 50, nil)
	assert.Equal(t, "tdigest/v1 compression=50 count=0 min=0 max=0 centroids=0", d.Encode())
}

func TestRoundTrip(t *testing.T) {
	var values []float64
	f := fuzz.New().NilChance(0).NumElements(10, 1000)
	for i := 0; i < 20; i++ {
		f.Fuzz(&values)
		d := buildDigest(t, testCompression, values)

		text := d.Encode()
		decoded, err := Decode(text)
		require.NoError(t, err)

		assert.Equal(t, d.compression, decoded.compression)
		assert.Equal(t, d.count, decoded.count)
		assert.Equal(t, d.min, decoded.min)
		assert.Equal(t, d.max, decoded.max)
		assert.Equal(t, d.centroids, decoded.centroids)

		// Canonical form: re-encoding the decoded digest is byte-identical.
		assert.Equal(t, text, decoded.Encode())
	}
}

func TestRoundTripEmpty(t *testing.T) {
	d := buildDigest(t, testCompression, nil)
	text := d.Encode()
	decoded, err := Decode(text)
	require.NoError(t, err)
	assert.True(t, decoded.IsEmpty())
	assert.Equal(t, text, decoded.Encode())
}

// Quantile results survive the round trip exactly.
func TestRoundTripQuantileEquivalence(t *testing.T) {
	d := rangeDigest(t, 1, 1000)
	decoded, err := Decode(d.Encode())
	require.NoError(t, err)
	for i := 0; i <= 100; i++ {
		q := float64(i) / 100
		want, err := d.Quantile(q)
		require.NoError(t, err)
		got, err := decoded.Quantile(q)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeTruncatedCentroidList(t *testing.T) {
	tokens := strings.Split(rangeDigest(t, 1, 100).Encode(), " ")
	truncated := strings.Join(tokens[:6+50], " ")

	_, err := Decode(truncated)
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestDecodeErrors(t *testing.T) {
	valid := "tdigest/v1 compression=10 count=3 min=1 max=3 centroids=3 1:1 2:1 3:1"
	if _, err := Decode(valid); err != nil {
		t.Fatalf("sanity: %v", err)
	}

	tests := map[string]string{
		"empty input":          "",
		"bad version":          "tdigest/v2 compression=10 count=3 min=1 max=3 centroids=3 1:1 2:1 3:1",
		"missing field":        "tdigest/v1 count=3 min=1 max=3 centroids=3 1:1 2:1 3:1",
		"zero compression":     "tdigest/v1 compression=0 count=3 min=1 max=3 centroids=3 1:1 2:1 3:1",
		"non-numeric count":    "tdigest/v1 compression=10 count=x min=1 max=3 centroids=3 1:1 2:1 3:1",
		"non-finite min":       "tdigest/v1 compression=10 count=3 min=NaN max=3 centroids=3 1:1 2:1 3:1",
		"malformed pair":       "tdigest/v1 compression=10 count=3 min=1 max=3 centroids=3 1:1 2_1 3:1",
		"zero weight":          "tdigest/v1 compression=10 count=3 min=1 max=3 centroids=3 1:1 2:0 3:1",
		"non-ascending means":  "tdigest/v1 compression=10 count=3 min=1 max=3 centroids=3 1:1 1:1 3:1",
		"weight sum mismatch":  "tdigest/v1 compression=10 count=4 min=1 max=3 centroids=3 1:1 2:1 3:1",
		"extra pair":           "tdigest/v1 compression=10 count=3 min=1 max=3 centroids=2 1:1 2:1 3:1",
		"trailing space":       valid + " ",
		"unbounded extrema":    "tdigest/v1 compression=10 count=3 min=2 max=3 centroids=3 1:1 2:1 3:1",
		"empty with count":     "tdigest/v1 compression=10 count=3 min=0 max=0 centroids=0",
		"empty nonzero minmax": "tdigest/v1 compression=10 count=0 min=1 max=1 centroids=0",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(text)
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "expected a ParseError, got %v", err)
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	var values []float64
	f := fuzz.New().NilChance(0).NumElements(10, 1000)
	for i := 0; i < 20; i++ {
		f.Fuzz(&values)
		d := buildDigest(t, testCompression, values)

		decoded, err := FromBinary(d.ToBinary())
		require.NoError(t, err)
		assert.Equal(t, d.compression, decoded.compression)
		assert.Equal(t, d.count, decoded.count)
		assert.Equal(t, d.min, decoded.min)
		assert.Equal(t, d.max, decoded.max)
		assert.Equal(t, d.centroids, decoded.centroids)
	}
}

func TestBinaryRoundTripEmpty(t *testing.T) {
	d := buildDigest(t, testCompression, nil)
	decoded, err := FromBinary(d.ToBinary())
	require.NoError(t, err)
	assert.True(t, decoded.IsEmpty())
	assert.Equal(t, d.compression, decoded.compression)
}

func TestBinaryDecodeErrors(t *testing.T) {
	d := rangeDigest(t, 1, 100)
	buf := d.ToBinary()

	// Truncations at every byte boundary must fail cleanly.
	for i := 0; i < len(buf); i++ {
		_, err := FromBinary(buf[:i])
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr), "truncation at %d: got %v", i, err)
	}

	_, err := FromBinary([]byte{0xFF, 0xFF})
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}
