// Package session implements the cosimulation protocol's state machine and
// update rounds: the handshake (FROM/TO/START), and the per-round
// exchange that drives signal values across the transport.
package session

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dargor0/myhdl-cosim-bridge/codec"
	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
	"github.com/dargor0/myhdl-cosim-bridge/logic"
	"github.com/dargor0/myhdl-cosim-bridge/signalset"
	"github.com/dargor0/myhdl-cosim-bridge/timemodel"
	"github.com/dargor0/myhdl-cosim-bridge/transport"
)

// State is one of the Session Controller's states.
type State int

const (
	StateInit State = iota
	StateFromSent
	StateToSent
	StateReady
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateFromSent:
		return "FROM_SENT"
	case StateToSent:
		return "TO_SENT"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result is the return code update() reports to the host.
type Result int

const (
	ResultEnd Result = iota
	ResultSignal
	ResultTime
	ResultDelta
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultEnd:
		return "END"
	case ResultSignal:
		return "SIGNAL"
	case ResultTime:
		return "TIME"
	case ResultDelta:
		return "DELTA"
	case ResultError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxMessageBytes is the minimum bounded message length the wire protocol
// requires; callers may raise it via Session.SetMaxMessageBytes for large
// signal lists but may never lower it below the wire minimum.
const MaxMessageBytes = 256

// Session owns the process-wide mutable state: the transport, both signal
// sets, the time model, and the handshake state machine. The host loads
// exactly one instance and calls it strictly serially — no internal
// locking is needed.
type Session struct {
	ID uuid.UUID

	transport transport.Transport
	fromSet   *signalset.Set
	toSet     *signalset.Set
	time      *timemodel.TimeState

	state          State
	initialized    bool
	maxMessageSize int

	trace  io.Writer
	logger Logger
}

// Logger is the minimal structured-logging surface the session calls into;
// satisfied by *log.Logger and by no-op stand-ins in tests.
type Logger interface {
	Printf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// New creates a Session over the given transport with the given peer-time
// resolution. resolution must be positive.
func New(t transport.Transport, resolution int64) *Session {
	return &Session{
		ID:             uuid.New(),
		transport:      t,
		time:           timemodel.New(resolution),
		maxMessageSize: MaxMessageBytes,
		logger:         discardLogger{},
	}
}

// SetLogger installs a logger for session diagnostics; nil restores the
// discarding default.
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		l = discardLogger{}
	}
	s.logger = l
}

// SetTrace installs a writer that receives every raw request/response
// exchanged with the peer, mirroring the original C plug-in's
// d_print_rawdata debug hook. Pass nil to disable tracing.
func (s *Session) SetTrace(w io.Writer) {
	s.trace = w
}

// SetMaxMessageBytes raises the per-message buffer size above the
// 256-byte floor; useful for signal lists wide enough to overflow it.
func (s *Session) SetMaxMessageBytes(n int) {
	if n > s.maxMessageSize {
		s.maxMessageSize = n
	}
}

// State reports the current handshake/session state.
func (s *Session) State() State {
	return s.state
}

// PeerTime reports the peer time established by the most recently
// completed update round.
func (s *Session) PeerTime() int64 {
	return s.time.PeerTime
}

// NextDelay computes the simulator-time delay until the next forced
// wake-up; the host calls this whenever Update returns ResultTime.
func (s *Session) NextDelay(simTime int64) int64 {
	return s.time.NextDelay(simTime)
}

func (s *Session) trace1(label, text string) {
	if s.trace == nil {
		return
	}
	fmt.Fprintf(s.trace, "%s >>>%s<<<\n", label, text)
}

// exchange sends request and blocks for the peer's reply, honoring
// MaxMessageBytes. It returns the trimmed response text, or ok=false when
// the peer closed the channel: an exchange returning 0 is not itself an
// error — callers decide how to react.
func (s *Session) exchange(request string) (response string, ok bool, err error) {
	s.trace1("send", request)
	buf := make([]byte, s.maxMessageSize)
	n, err := s.transport.Exchange([]byte(request), buf)
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", false, nil
	}
	if n == len(buf) {
		s.logger.Printf("session: response filled the %d-byte buffer, truncating", len(buf))
	}
	text := strings.TrimRight(string(buf[:n]), "\x00")
	s.trace1("recv", text)
	return text, true, nil
}

func isAffirmative(response string) bool {
	return len(response) > 0 && (response[0] == 'O' || response[0] == 'K')
}

// Startup runs the three-message handshake: FROM, TO, START, each
// awaiting an affirmative acknowledgement. It may be called exactly once
// per session; a second call is a protocol error.
func (s *Session) Startup(simTime int64, fromSignals, toSignals string) error {
	if s.initialized {
		return fmt.Errorf("%w: startup called twice", cosimerr.ErrParseError)
	}

	fromSet, err := signalset.Parse(fromSignals)
	if err != nil {
		return err
	}
	toSet, err := signalset.Parse(toSignals)
	if err != nil {
		return err
	}
	s.fromSet = fromSet
	s.toSet = toSet

	if err := s.handshakeStep(&s.state, StateFromSent,
		fmt.Sprintf("FROM %d %s ", simTime, fromSignals)); err != nil {
		return err
	}
	if err := s.handshakeStep(&s.state, StateToSent,
		fmt.Sprintf("TO %d %s ", simTime, toSignals)); err != nil {
		return err
	}
	if err := s.handshakeStep(&s.state, StateReady, "START "); err != nil {
		return err
	}

	s.initialized = true
	return nil
}

func (s *Session) handshakeStep(state *State, next State, request string) error {
	response, ok, err := s.exchange(request)
	if err != nil {
		*state = StateFailed
		return fmt.Errorf("%w: %v", cosimerr.ErrIOError, err)
	}
	if !ok {
		*state = StateClosed
		return fmt.Errorf("%w: peer closed during handshake", cosimerr.ErrPeerClosed)
	}
	if !isAffirmative(response) {
		*state = StateFailed
		return fmt.Errorf("%w: handshake reply %q lacks affirmative prefix", cosimerr.ErrNegativeAck, response)
	}
	*state = next
	return nil
}

// ValueChange names one descriptor whose value moved during an update
// round, in the wire's own hex text form.
type ValueChange struct {
	Name  string
	Value string
}

// Update runs one update round. datain is the TO-vector (observed in the
// simulator); dataout is the FROM-vector (written from the peer's
// response). sim_time is the current simulator time. Alongside the
// result it reports the TO_SET descriptors sent this round and the
// FROM_SET descriptors the peer's reply updated, for callers that record
// or publish round detail.
func (s *Session) Update(datain, dataout *logic.LogicVector, simTime int64) (Result, []ValueChange, []ValueChange) {
	if s.state == StateClosed || s.state == StateFailed {
		return ResultEnd, nil, nil
	}

	if err := s.toSet.EnsureConfigured(datain); err != nil {
		s.state = StateFailed
		s.logger.Printf("session: %v", err)
		return ResultError, nil, nil
	}
	if err := s.fromSet.EnsureConfigured(dataout); err != nil {
		s.state = StateFailed
		s.logger.Printf("session: %v", err)
		return ResultError, nil, nil
	}

	// A descriptor still flagged HAS_CHANGED on entry was rearmed by the
	// t=0 delta-cycle rule and is sent even if Observe finds no difference.
	rearmed := make(map[*signalset.Descriptor]bool)
	for _, d := range s.toSet.Descriptors {
		if d.Flags.Has(signalset.FlagHasChanged) {
			rearmed[d] = true
		}
	}
	codec.Observe(s.toSet, datain)
	var changed []*signalset.Descriptor
	for _, d := range s.toSet.Descriptors {
		if rearmed[d] || d.Flags.Has(signalset.FlagHasChanged) {
			changed = append(changed, d)
		}
	}

	s.time.SimTime = simTime
	currentPeerTime := s.time.PeerOf(simTime)

	var body strings.Builder
	fmt.Fprintf(&body, "%d ", currentPeerTime)
	toChanges := make([]ValueChange, 0, len(changed))
	for _, d := range changed {
		text, err := codec.Render(d)
		if err != nil {
			s.state = StateFailed
			s.logger.Printf("session: render %s: %v", d.Name, err)
			return ResultError, nil, nil
		}
		fmt.Fprintf(&body, "%s %s ", d.Name, text)
		toChanges = append(toChanges, ValueChange{Name: d.Name, Value: text})
		d.Flags &^= signalset.FlagHasChanged
	}

	response, ok, err := s.exchange(body.String())
	if err != nil {
		s.state = StateFailed
		s.logger.Printf("session: exchange: %v", err)
		return ResultError, nil, nil
	}
	if !ok {
		s.state = StateClosed
		return ResultEnd, nil, nil
	}

	peerTime, names, values, err := parseUpdateResponse(response)
	if err != nil {
		s.state = StateFailed
		s.logger.Printf("session: %v", err)
		return ResultError, nil, nil
	}

	if err := applyPositional(s.fromSet, names, values, dataout); err != nil {
		s.state = StateFailed
		s.logger.Printf("session: %v", err)
		return ResultError, nil, nil
	}

	fromChanges := make([]ValueChange, len(names))
	for i, name := range names {
		fromChanges[i] = ValueChange{Name: name, Value: values[i]}
	}

	s.time.PeerTime = currentPeerTime

	switch {
	case peerTime > currentPeerTime:
		s.time.NextTrigger = peerTime
		return ResultTime, toChanges, fromChanges
	case len(values) == 0:
		if simTime == 0 {
			rearmInitialValues(s.toSet)
		}
		return ResultDelta, toChanges, fromChanges
	case peerTime < currentPeerTime:
		return ResultDelta, toChanges, fromChanges
	default:
		return ResultSignal, toChanges, fromChanges
	}
}

// rearmInitialValues implements the t=0 delta-cycle rule: any TO_SET
// descriptor still bearing INITIAL_VAL has HAS_CHANGED set and
// INITIAL_VAL cleared, so the next round re-emits the initial values.
func rearmInitialValues(set *signalset.Set) {
	for _, d := range set.Descriptors {
		if d.Flags.Has(signalset.FlagInitialVal) {
			d.Flags |= signalset.FlagHasChanged
			d.Flags &^= signalset.FlagInitialVal
		}
	}
}

// parseUpdateResponse parses "<peer_time> [<name> <hexval> ]*".
func parseUpdateResponse(text string) (peerTime int64, names, values []string, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: empty update response", cosimerr.ErrParseError)
	}
	peerTime, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: peer time %q: %v", cosimerr.ErrParseError, fields[0], err)
	}
	rest := fields[1:]
	if len(rest)%2 != 0 {
		return 0, nil, nil, fmt.Errorf("%w: update response %q has an odd number of value tokens", cosimerr.ErrParseError, text)
	}
	for i := 0; i < len(rest); i += 2 {
		names = append(names, rest[i])
		values = append(values, rest[i+1])
	}
	return peerTime, names, values, nil
}

// applyPositional matches response values to FROM_SET descriptors by
// positional order: the i-th value binds to the i-th descriptor, the
// echoed name is advisory only. This implementation additionally
// verifies names, failing PARSE_ERROR on mismatch and attaching the
// Levenshtein-based diagnostic so an operator can see whether the peer
// likely reordered its reply rather than simply used a stale name.
func applyPositional(set *signalset.Set, names, values []string, vec *logic.LogicVector) error {
	if len(values) > len(set.Descriptors) {
		return fmt.Errorf("%w: update response names %d values but FROM_SET has %d descriptors", cosimerr.ErrParseError, len(values), len(set.Descriptors))
	}
	for i, val := range values {
		d := set.Descriptors[i]
		if names[i] != d.Name {
			return fmt.Errorf("%w: %s", cosimerr.ErrParseError, diagnoseMismatch(set, names[i], d.Name))
		}
		if err := codec.Apply(d, val, vec); err != nil {
			return fmt.Errorf("%w: applying %q to %s: %v", cosimerr.ErrParseError, val, d.Name, err)
		}
	}
	return nil
}
