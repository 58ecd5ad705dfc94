// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// The binary form is a flat protobuf message, hand-marshaled with protowire:
//
//	1 compression  varint
//	2 count        varint
//	3 min          fixed64 (float64 bits, present iff count > 0)
//	4 max          fixed64 (float64 bits, present iff count > 0)
//	5 means        packed fixed64, ascending
//	6 weights      packed varint, parallel to means
const (
	binFieldCompression protowire.Number = 1
	binFieldCount       protowire.Number = 2
	binFieldMin         protowire.Number = 3
	binFieldMax         protowire.Number = 4
	binFieldMeans       protowire.Number = 5
	binFieldWeights     protowire.Number = 6
)

// ToBinary renders the digest in its compact binary wire form.
func (d *TDigest) ToBinary() []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, binFieldCompression, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(d.compression))
	buf = protowire.AppendTag(buf, binFieldCount, protowire.VarintType)
	buf = protowire.AppendVarint(buf, d.count)
	if d.count == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, binFieldMin, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(d.min))
	buf = protowire.AppendTag(buf, binFieldMax, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(d.max))

	means := make([]byte, 0, 8*len(d.centroids))
	weights := make([]byte, 0, len(d.centroids))
	for _, c := range d.centroids {
		means = protowire.AppendFixed64(means, math.Float64bits(c.Mean))
		weights = protowire.AppendVarint(weights, c.Weight)
	}
	buf = protowire.AppendTag(buf, binFieldMeans, protowire.BytesType)
	buf = protowire.AppendBytes(buf, means)
	buf = protowire.AppendTag(buf, binFieldWeights, protowire.BytesType)
	buf = protowire.AppendBytes(buf, weights)
	return buf
}

// FromBinary parses the binary wire form, validating the same structural
// invariants as Decode. Violations fail with a *ParseError.
func FromBinary(data []byte) (*TDigest, error) {
	var (
		compression      uint64
		count            uint64
		sawCount         bool
		minBits, maxBits uint64
		sawExtrema       bool
		means            []float64
		weights          []uint64
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseErrorf("invalid wire tag")
		}
		data = data[n:]
		switch num {
		case binFieldCompression, binFieldCount:
			if typ != protowire.VarintType {
				return nil, parseErrorf("field %d has wire type %d", num, typ)
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseErrorf("truncated varint in field %d", num)
			}
			data = data[n:]
			if num == binFieldCompression {
				compression = v
			} else {
				count = v
				sawCount = true
			}
		case binFieldMin, binFieldMax:
			if typ != protowire.Fixed64Type {
				return nil, parseErrorf("field %d has wire type %d", num, typ)
			}
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, parseErrorf("truncated fixed64 in field %d", num)
			}
			data = data[n:]
			if num == binFieldMin {
				minBits = v
			} else {
				maxBits = v
			}
			sawExtrema = true
		case binFieldMeans:
			packed, n := protowire.ConsumeBytes(data)
			if typ != protowire.BytesType || n < 0 {
				return nil, parseErrorf("malformed means field")
			}
			data = data[n:]
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed64(packed)
				if m < 0 {
					return nil, parseErrorf("truncated mean")
				}
				packed = packed[m:]
				means = append(means, math.Float64frombits(v))
			}
		case binFieldWeights:
			packed, n := protowire.ConsumeBytes(data)
			if typ != protowire.BytesType || n < 0 {
				return nil, parseErrorf("malformed weights field")
			}
			data = data[n:]
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return nil, parseErrorf("truncated weight")
				}
				packed = packed[m:]
				weights = append(weights, v)
			}
		default:
			return nil, parseErrorf("unknown field %d", num)
		}
	}

	if compression == 0 || compression > math.MaxUint32 {
		return nil, parseErrorf("compression %d out of range", compression)
	}
	if !sawCount {
		return nil, parseErrorf("missing count")
	}
	if len(means) != len(weights) {
		return nil, parseErrorf("%d means but %d weights", len(means), len(weights))
	}

	digest := &TDigest{
		compression: uint32(compression),
		count:       count,
		min:         math.Inf(1),
		max:         math.Inf(-1),
	}
	if count == 0 {
		if sawExtrema || len(means) != 0 {
			return nil, parseErrorf("empty digest carries data fields")
		}
		return digest, nil
	}
	if !sawExtrema {
		return nil, parseErrorf("missing extrema")
	}
	digest.min = math.Float64frombits(minBits)
	digest.max = math.Float64frombits(maxBits)
	if math.IsNaN(digest.min) || math.IsInf(digest.min, 0) ||
		math.IsNaN(digest.max) || math.IsInf(digest.max, 0) {
		return nil, parseErrorf("non-finite extrema")
	}

	digest.centroids = make([]Centroid, 0, len(means))
	var weightSum uint64
	for i, mean := range means {
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return nil, parseErrorf("non-finite centroid mean")
		}
		if i > 0 && mean <= means[i-1] {
			return nil, parseErrorf("centroid means must be strictly ascending at pair %d", i)
		}
		if weights[i] == 0 {
			return nil, parseErrorf("zero centroid weight at pair %d", i)
		}
		digest.centroids = append(digest.centroids, Centroid{Mean: mean, Weight: weights[i]})
		weightSum += weights[i]
	}
	if weightSum != count {
		return nil, parseErrorf("count %d does not match centroid weight sum %d", count, weightSum)
	}
	if !(digest.min <= digest.centroids[0].Mean) || !(digest.max >= digest.centroids[len(digest.centroids)-1].Mean) {
		return nil, parseErrorf("extrema do not bound the centroid means")
	}
	return digest, nil
}
