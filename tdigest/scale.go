// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import "math"

// The scale function maps a cumulative-weight fraction q in [0,1] to a
// position k in cluster-index space, for a digest with compression d.
// Clusters near the median may grow large while clusters near the tails stay
// small, which is what keeps the relative error low at extreme quantiles.

// kToQ maps a cluster index back to a cumulative-weight fraction.
func kToQ(k, d float64) float64 {
	kd := k / d
	if kd >= 0.5 {
		base := 1 - kd
		return 1 - 2*base*base
	}
	return 2 * kd * kd
}

// qToK maps a cumulative-weight fraction to cluster-index space.
func qToK(q, d float64) float64 {
	if q >= 0.5 {
		return d * (1 - math.Sqrt((1-q)/2))
	}
	return d * math.Sqrt(q/2)
}

// spanWithinBound reports whether a centroid covering the cumulative-weight
// fractions [q1, q2] fits within one unit of cluster-index space. This is
// the single size invariant that both insertion and compression maintain.
func spanWithinBound(q1, q2, d float64) bool {
	return qToK(q2, d)-qToK(q1, d) <= 1
}
