// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encodingVersion tags the canonical text form. Decode rejects anything
// else.
const encodingVersion = "tdigest/v1"

// ParseError reports malformed encoded text passed to Decode or FromBinary.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string {
	return "tdigest: cannot parse the encoded digest: " + e.msg
}

func parseErrorf(format string, args ...interface{}) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Encode renders the digest in its canonical ASCII form, a single printable
// NUL-free line:
//
//	tdigest/v1 compression=C count=W min=MIN max=MAX centroids=N mean:weight ...
//
// with the centroid pairs ascending by mean. Floats use the shortest
// representation that round-trips, so the encoding of a digest is unique:
// Encode(Decode(Encode(d))) is byte-identical to Encode(d). An empty digest
// encodes with min=0 and max=0.
func (d *TDigest) Encode() string {
	min, max := d.min, d.max
	if d.count == 0 {
		min, max = 0, 0
	}

	var sb strings.Builder
	sb.WriteString(encodingVersion)
	sb.WriteString(" compression=")
	sb.WriteString(strconv.FormatUint(uint64(d.compression), 10))
	sb.WriteString(" count=")
	sb.WriteString(strconv.FormatUint(d.count, 10))
	sb.WriteString(" min=")
	sb.WriteString(formatFloat(min))
	sb.WriteString(" max=")
	sb.WriteString(formatFloat(max))
	sb.WriteString(" centroids=")
	sb.WriteString(strconv.Itoa(len(d.centroids)))
	for _, c := range d.centroids {
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(c.Mean))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(c.Weight, 10))
	}
	return sb.String()
}

// Decode parses text produced by Encode. The parse is strict: version,
// field names and order, numeric syntax, strictly ascending means, positive
// weights, the centroid count, and the count/weight-sum invariant are all
// validated, and any violation fails with a *ParseError.
func Decode(text string) (*TDigest, error) {
	tokens := strings.Split(text, " ")
	if len(tokens) < 6 {
		return nil, parseErrorf("truncated header: %d fields", len(tokens))
	}
	if tokens[0] != encodingVersion {
		return nil, parseErrorf("unsupported version %q", tokens[0])
	}

	compression, err := parseUintField(tokens[1], "compression")
	if err != nil {
		return nil, err
	}
	if compression == 0 || compression > math.MaxUint32 {
		return nil, parseErrorf("compression %d out of range", compression)
	}
	count, err := parseUintField(tokens[2], "count")
	if err != nil {
		return nil, err
	}
	min, err := parseFloatField(tokens[3], "min")
	if err != nil {
		return nil, err
	}
	max, err := parseFloatField(tokens[4], "max")
	if err != nil {
		return nil, err
	}
	numCentroids, err := parseUintField(tokens[5], "centroids")
	if err != nil {
		return nil, err
	}
	if uint64(len(tokens)-6) != numCentroids {
		return nil, parseErrorf("declared %d centroids, found %d", numCentroids, len(tokens)-6)
	}

	digest := &TDigest{
		compression: uint32(compression),
		count:       count,
		min:         min,
		max:         max,
	}
	if numCentroids == 0 {
		if count != 0 {
			return nil, parseErrorf("count %d with no centroids", count)
		}
		if min != 0 || max != 0 {
			return nil, parseErrorf("empty digest must encode min=0 max=0")
		}
		digest.min = math.Inf(1)
		digest.max = math.Inf(-1)
		return digest, nil
	}

	digest.centroids = make([]Centroid, 0, numCentroids)
	var weightSum uint64
	for i, token := range tokens[6:] {
		mean, weight, err := parseCentroid(token)
		if err != nil {
			return nil, err
		}
		if i > 0 && mean <= digest.centroids[i-1].Mean {
			return nil, parseErrorf("centroid means must be strictly ascending at pair %d", i)
		}
		digest.centroids = append(digest.centroids, Centroid{Mean: mean, Weight: weight})
		weightSum += weight
	}
	if weightSum != count {
		return nil, parseErrorf("count %d does not match centroid weight sum %d", count, weightSum)
	}
	if !(min <= digest.centroids[0].Mean) || !(max >= digest.centroids[numCentroids-1].Mean) {
		return nil, parseErrorf("extrema do not bound the centroid means")
	}
	return digest, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fieldValue(token, name string) (string, error) {
	prefix := name + "="
	if !strings.HasPrefix(token, prefix) {
		return "", parseErrorf("expected field %s, found %q", name, token)
	}
	return token[len(prefix):], nil
}

func parseUintField(token, name string) (uint64, error) {
	value, err := fieldValue(token, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, parseErrorf("invalid %s %q", name, value)
	}
	return v, nil
}

func parseFloatField(token, name string) (float64, error) {
	value, err := fieldValue(token, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, parseErrorf("invalid %s %q", name, value)
	}
	return v, nil
}

func parseCentroid(token string) (float64, uint64, error) {
	sep := strings.IndexByte(token, ':')
	if sep < 0 {
		return 0, 0, parseErrorf("malformed centroid pair %q", token)
	}
	mean, err := strconv.ParseFloat(token[:sep], 64)
	if err != nil || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, 0, parseErrorf("invalid centroid mean %q", token[:sep])
	}
	weight, err := strconv.ParseUint(token[sep+1:], 10, 64)
	if err != nil || weight == 0 {
		return 0, 0, parseErrorf("invalid centroid weight %q", token[sep+1:])
	}
	return mean, weight, nil
}
