// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"go.ytsaurus.tech/library/go/core/metrics"
)

type pipelineMetrics struct {
	chunksCompleted metrics.Counter
	chunksFailed    metrics.Counter
	records         metrics.Counter
	bytes           metrics.Counter
	inflight        metrics.IntGauge
}

func newPipelineMetrics(registry metrics.Registry) *pipelineMetrics {
	if registry == nil {
		return nil
	}
	return &pipelineMetrics{
		chunksCompleted: registry.Counter("chunks_completed"),
		chunksFailed:    registry.Counter("chunks_failed"),
		records:         registry.Counter("records_encoded"),
		bytes:           registry.Counter("bytes_written"),
		inflight:        registry.IntGauge("workers_inflight"),
	}
}

func (m *pipelineMetrics) workerStarted() {
	if m != nil {
		m.inflight.Add(1)
	}
}

func (m *pipelineMetrics) workerDone(res Result, err error) {
	if m == nil {
		return
	}
	m.inflight.Add(-1)
	if err != nil {
		m.chunksFailed.Inc()
		return
	}
	m.chunksCompleted.Inc()
	m.records.Add(int64(res.Part.Records))
	m.bytes.Add(res.Part.Length)
}
