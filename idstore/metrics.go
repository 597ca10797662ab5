package idstore

import "github.com/ceyewan/idstore/metrics"

// 指标名称
const (
	MetricBatchesTotal     = "idstore_batches_total"
	MetricConflictsTotal   = "idstore_conflicts_total"
	MetricIDsReservedTotal = "idstore_ids_reserved_total"
	MetricAllocateDuration = "idstore_allocate_duration_seconds"
)

// instruments 分配器使用的指标，标签为 driver 与 table
type instruments struct {
	batches   metrics.Counter
	conflicts metrics.Counter
	reserved  metrics.Counter
	duration  metrics.Histogram
}

func newInstruments(m metrics.Meter) (*instruments, error) {
	var (
		ins instruments
		err error
	)
	if ins.batches, err = m.Counter(MetricBatchesTotal, "成功预留的批次数"); err != nil {
		return nil, err
	}
	if ins.conflicts, err = m.Counter(MetricConflictsTotal, "因并发冲突放弃的尝试次数"); err != nil {
		return nil, err
	}
	if ins.reserved, err = m.Counter(MetricIDsReservedTotal, "预留的 ID 总数"); err != nil {
		return nil, err
	}
	if ins.duration, err = m.Histogram(MetricAllocateDuration, "单次批量分配耗时（含重试）",
		metrics.WithUnit("s"),
		metrics.WithBuckets(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	); err != nil {
		return nil, err
	}
	return &ins, nil
}
