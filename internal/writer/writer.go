package writer

import (
	"context"
	"time"

	"github.com/climacan/climacan/internal/model"
	qdb "github.com/questdb/go-questdb-client/v3"
)

// senderSource abstracts the QuestDB sender pool so tests can inject a fake.
type senderSource interface {
	Sender(ctx context.Context) (qdb.LineSender, error)
}

// RejectedPoint pairs a point the store did not accept with the reason.
type RejectedPoint struct {
	Point  model.ObservationPoint
	Reason string
}

// WriteResult reports a batch write per point: there is no whole-batch
// atomicity, a rejected point does not undo its accepted siblings.
type WriteResult struct {
	Accepted int
	Rejected []RejectedPoint
}

// Writer appends observation points to the time-series store over ILP.
// Each point becomes one row: table = metric, symbols = source/station,
// value and unit columns, designated timestamp = measured_at. The underlying
// sender pool is safe for concurrent use by both collector loops.
type Writer struct {
	senders senderSource
	pool    *qdb.LineSenderPool
}

// New connects a Writer to the store's ILP endpoint at addr (host:port).
func New(addr string) (*Writer, error) {
	pool, err := qdb.PoolFromOptions(
		qdb.WithAddress(addr),
		qdb.WithHttp(),
		qdb.WithAutoFlushRows(10_000),
		qdb.WithRetryTimeout(time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Writer{senders: pool, pool: pool}, nil
}

func newWithSource(senders senderSource) *Writer {
	return &Writer{senders: senders}
}

// Write appends the batch as one logical operation. Points the sender refuses
// are reported individually in the result; the returned error is reserved for
// failures of the write channel itself (no sender, failed flush).
func (w *Writer) Write(ctx context.Context, batch []model.ObservationPoint) (WriteResult, error) {
	var res WriteResult
	if len(batch) == 0 {
		return res, nil
	}

	sender, err := w.senders.Sender(ctx)
	if err != nil {
		return res, err
	}
	// Close releases the sender back to the pool.
	defer sender.Close(ctx)

	for _, p := range batch {
		err := sender.Table(p.Metric).
			Symbol("source", string(p.Source)).
			Symbol("station", p.StationID).
			Float64Column("value", p.Value).
			StringColumn("unit", p.Unit).
			At(ctx, p.MeasuredAt)
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedPoint{Point: p, Reason: err.Error()})
			continue
		}
		res.Accepted++
	}

	if err := sender.Flush(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Close releases the sender pool on process shutdown.
func (w *Writer) Close(ctx context.Context) error {
	if w.pool == nil {
		return nil
	}
	return w.pool.Close(ctx)
}
