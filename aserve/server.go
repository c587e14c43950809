package aserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/aquic"
	"github.com/gordian-engine/allotree/arecord"
	"github.com/gordian-engine/allotree/internal/abitset"
	"github.com/gordian-engine/allotree/internal/atrace"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Application and stream error codes used by the server.
const (
	ServerShutdownCode aquic.ApplicationErrorCode = 0x01

	BadProtocolCode aquic.StreamErrorCode = 0x01
)

// ServerConfig configures a [Server].
// Zero values are replaced with defaults in [NewServer].
type ServerConfig struct {
	// Deadline for reading a request and for writing its response.
	// Default 5s.
	StreamTimeout time.Duration

	// Number of proofs cached per tree. Default 1024.
	CacheSize int

	// How long a cached proof is kept. Default 10m.
	CacheTTL time.Duration

	// Target false positive rate of the membership prefilter.
	// Default 0.01.
	FilterFalsePositiveRate float64

	// Metrics is where request counts are recorded.
	// If nil, unregistered metrics are created.
	Metrics *Metrics

	// TracerProvider supplies the tracer for connection and request spans.
	// If nil, spans are not recorded.
	TracerProvider atrace.TracerProvider
}

func (c *ServerConfig) setDefaults() {
	if c.StreamTimeout <= 0 {
		c.StreamTimeout = 5 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 1024
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.FilterFalsePositiveRate <= 0 || c.FilterFalsePositiveRate >= 1 {
		c.FilterFalsePositiveRate = 0.01
	}
	if c.Metrics == nil {
		c.Metrics = NewMetrics(nil)
	}
	if c.TracerProvider == nil {
		c.TracerProvider = atrace.NopTracerProvider()
	}
}

// Server answers proof requests against the current tree.
type Server struct {
	log    *slog.Logger
	cfg    ServerConfig
	tracer atrace.Tracer

	cur atomic.Pointer[wave]
}

// wave is everything derived from one tree.
// It is replaced wholesale so that a request never
// mixes the filter or cache of one tree with another tree.
type wave struct {
	tree *allotree.Tree
	root string

	// Read-only after construction.
	filter *bloom.BloomFilter

	cache *expirable.LRU[string, cachedProof]
}

type cachedProof struct {
	calldata []string
	path     *bitset.BitSet
}

// NewServer returns a Server answering from tree.
func NewServer(log *slog.Logger, tree *allotree.Tree, cfg ServerConfig) *Server {
	cfg.setDefaults()

	s := &Server{
		log:    log,
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(atrace.TracerName),
	}
	s.SetTree(tree)
	return s
}

// SetTree replaces the served tree.
// Requests already in flight finish against the previous tree.
func (s *Server) SetTree(tree *allotree.Tree) {
	if tree == nil {
		panic(errors.New("BUG: SetTree called with nil tree"))
	}

	allocs := tree.Allocations()
	filter := bloom.NewWithEstimates(uint(len(allocs)), s.cfg.FilterFalsePositiveRate)
	var key []byte
	for _, r := range allocs {
		key = r.AppendKey(key[:0])
		filter.Add(key)
	}

	w := &wave{
		tree:   tree,
		root:   tree.RootHex(),
		filter: filter,
		cache:  expirable.NewLRU[string, cachedProof](s.cfg.CacheSize, nil, s.cfg.CacheTTL),
	}
	s.cur.Store(w)

	s.cfg.Metrics.TreeAllocations.Set(float64(len(allocs)))
	s.log.Info(
		"Serving new tree",
		"root", w.root,
		"allocations", len(allocs),
		"depth", tree.Depth(),
	)
}

// Tree returns the tree currently being served.
func (s *Server) Tree() *allotree.Tree {
	return s.cur.Load().tree
}

// Serve accepts connections from l until ctx is canceled,
// handling every stream on every connection concurrently.
// Serve returns nil after ctx is canceled,
// once all of its connection handlers have returned.
//
// If accepting fails for any other reason, such as l being closed,
// every open connection is closed with [ServerShutdownCode]
// and the accept error is returned once the handlers have returned.
func (s *Server) Serve(ctx context.Context, l aquic.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	// Canceled before the wait above,
	// so connection handlers stop accepting streams.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		wg.Add(1)
		go s.handleConn(ctx, &wg, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, wg *sync.WaitGroup, conn aquic.Conn) {
	defer wg.Done()

	ctx, span := s.tracer.Start(
		ctx,
		"proof connection",
		atrace.WithAttributes(atrace.RemoteAddrAttr(conn)),
	)
	defer span.End()

	log := s.log.With(
		"remote_addr", conn.RemoteAddr().String(),
		"local_addr", conn.LocalAddr().String(),
	)
	log.Debug("Accepted connection")

	var streamWG sync.WaitGroup
	defer streamWG.Wait()

	for {
		st, err := conn.AcceptStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = conn.CloseWithError(ServerShutdownCode, "server shutting down")
				return
			}

			// Usually the peer closing the connection.
			log.Debug("Stopped accepting streams", "err", err)
			return
		}

		streamWG.Add(1)
		go func() {
			defer streamWG.Done()
			if err := s.HandleStream(ctx, st); err != nil {
				log.Info("Failed to handle proof stream", "err", err)
			}
		}()
	}
}

// HandleStream answers the single request on st and closes st's send side.
// The first byte of the stream selects a proof or a membership request.
//
// The context only parents the request's trace span;
// stream I/O is bounded by the configured stream timeout.
func (s *Server) HandleStream(ctx context.Context, st aquic.Stream) (err error) {
	_, span := s.tracer.Start(ctx, "answer proof request")
	defer func() {
		if err != nil {
			span.SetAttributes(atrace.ErrorAttr(err))
			atrace.SpanError(span, err)
		}
		span.End()
	}()

	if err := st.SetReadDeadline(time.Now().Add(s.cfg.StreamTimeout)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	var pid [1]byte
	if _, err := io.ReadFull(st, pid[:]); err != nil {
		return fmt.Errorf("failed to read protocol ID: %w", err)
	}

	switch pid[0] {
	case ProtocolID:
		err = s.handleProof(span, st)
	case MembershipProtocolID:
		span.SetName("answer membership request")
		err = s.handleMembership(span, st)
	default:
		st.CancelRead(BadProtocolCode)
		st.CancelWrite(BadProtocolCode)
		return fmt.Errorf("unknown protocol ID 0x%x", pid[0])
	}
	if err != nil {
		return err
	}

	return st.Close()
}

func (s *Server) handleProof(span atrace.Span, st aquic.Stream) error {
	var status Status
	var resp ProofResponse
	var path *bitset.BitSet

	var req ProofRequest
	if err := readFrame(st, &req); err != nil {
		status, resp = StatusInvalid, ProofResponse{Root: s.cur.Load().root, Error: err.Error()}
	} else {
		span.SetAttributes(atrace.RecordAttr(req))
		status, resp, path = s.Answer(req)
	}

	span.SetAttributes(
		atrace.ProofStatusAttr(status),
		atrace.StringAttr("allotree.root", resp.Root),
	)
	if status == StatusOK {
		span.SetAttributes(atrace.IntAttr("allotree.proof.depth", int(path.Len())))
	}
	s.cfg.Metrics.Requests.WithLabelValues(status.String()).Inc()

	if err := s.writeResponse(st, status, resp); err != nil {
		return err
	}

	if status == StatusOK {
		// A path is at most a few words, too short for compression to pay off.
		// The write deadline from writeResponse still applies.
		var enc abitset.RawEncoder
		return enc.SendBitset(st, 0, path)
	}
	return nil
}

func (s *Server) handleMembership(span atrace.Span, st aquic.Stream) error {
	var status Status
	var resp MembershipResponse
	var found *bitset.BitSet

	var req MembershipRequest
	if err := readFrame(st, &req); err != nil {
		status, resp = StatusInvalid, MembershipResponse{Root: s.cur.Load().root, Error: err.Error()}
	} else {
		span.SetAttributes(atrace.IntAttr("allotree.membership.records", len(req.Records)))
		status, resp, found = s.CheckMembership(req.Records)
	}

	span.SetAttributes(
		atrace.ProofStatusAttr(status),
		atrace.StringAttr("allotree.root", resp.Root),
	)
	s.cfg.Metrics.MembershipRequests.WithLabelValues(status.String()).Inc()
	if status == StatusOK {
		s.cfg.Metrics.MembershipRecords.Add(float64(found.Len()))
	}

	if err := s.writeResponse(st, status, resp); err != nil {
		return err
	}

	if status == StatusOK {
		// Usually sparse, so the adaptive codec compresses large batches.
		var enc abitset.AdaptiveEncoder
		return enc.SendBitset(st, 0, found)
	}
	return nil
}

func (s *Server) writeResponse(st aquic.Stream, status Status, resp any) error {
	if err := st.SetWriteDeadline(time.Now().Add(s.cfg.StreamTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	out, err := appendFrame([]byte{byte(status)}, resp)
	if err != nil {
		st.CancelWrite(BadProtocolCode)
		return err
	}
	if _, err := st.Write(out); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// Answer resolves req against the current tree without any I/O.
// The returned path is nil unless the status is [StatusOK],
// and it is owned by the caller.
func (s *Server) Answer(req ProofRequest) (Status, ProofResponse, *bitset.BitSet) {
	w := s.cur.Load()

	if _, err := arecord.Canonicalize(req); err != nil {
		return StatusInvalid, ProofResponse{Root: w.root, Error: err.Error()}, nil
	}

	key := string(req.AppendKey(nil))
	if !w.filter.TestString(key) {
		return StatusNotFound, ProofResponse{Root: w.root}, nil
	}

	if c, ok := w.cache.Get(key); ok {
		s.cfg.Metrics.CacheHits.Inc()
		return StatusOK, ProofResponse{Root: w.root, Calldata: slices.Clone(c.calldata)}, c.path.Clone()
	}

	p, err := w.tree.Prove(req)
	if err != nil {
		var nf allotree.AllocationNotFoundError
		if errors.As(err, &nf) {
			return StatusNotFound, ProofResponse{Root: w.root}, nil
		}
		return StatusInvalid, ProofResponse{Root: w.root, Error: err.Error()}, nil
	}

	c := cachedProof{calldata: p.Calldata(), path: p.Path}
	w.cache.Add(key, c)

	return StatusOK, ProofResponse{Root: w.root, Calldata: slices.Clone(c.calldata)}, c.path.Clone()
}

// CheckMembership reports which of records are in the current tree.
// Bit i of the returned bitset is set when records[i] is present.
// The whole batch is rejected with [StatusInvalid]
// if it is empty or any record fails to canonicalize.
func (s *Server) CheckMembership(records []arecord.Record) (Status, MembershipResponse, *bitset.BitSet) {
	w := s.cur.Load()

	if len(records) == 0 {
		return StatusInvalid, MembershipResponse{Root: w.root, Error: "no records in membership request"}, nil
	}

	found := bitset.New(uint(len(records)))
	root := w.tree.Root()

	var key []byte
	for i, r := range records {
		if _, err := arecord.Canonicalize(r); err != nil {
			return StatusInvalid, MembershipResponse{
				Root:  w.root,
				Error: fmt.Sprintf("record %d: %v", i, err),
			}, nil
		}

		key = r.AppendKey(key[:0])
		if !w.filter.Test(key) {
			continue
		}
		if root.Contains(r) {
			found.Set(uint(i))
		}
	}

	return StatusOK, MembershipResponse{Root: w.root, Found: int(found.Count())}, found
}
