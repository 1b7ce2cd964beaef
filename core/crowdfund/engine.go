package crowdfund

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"curachain/core/audit"
	"curachain/core/ledger"
	"curachain/core/notify"
	"curachain/types/ids"

	"github.com/google/uuid"
)

// Engine is the entry point for every crowdfunding operation and query.
// Each operation runs as one ledger transaction.
type Engine struct {
	ledger    *ledger.Ledger
	cases     CaseRegistry
	verifiers VerifierRegistry
	voting    VerificationCoordinator
	escrow    EscrowLedger
	release   ReleaseAuthority
	audit     audit.AuditLogger
	notifier  notify.Notifier
	logger    *slog.Logger
}

type Option func(*Engine)

func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.voting.Thresholds = t
	}
}

func WithAuditLogger(l audit.AuditLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.audit = l
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine wires the components over l.
func NewEngine(l *ledger.Ledger, opts ...Option) (*Engine, error) {
	if l == nil {
		return nil, errors.New("crowdfund: ledger is required")
	}
	e := &Engine{
		ledger:   l,
		audit:    audit.NopAuditLogger{},
		notifier: notify.Fanout{},
		logger:   slog.Default(),
	}
	e.voting = VerificationCoordinator{Thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.voting.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("crowdfund: %w", err)
	}
	e.voting.Cases = e.cases
	e.voting.Verifiers = e.verifiers
	e.escrow.Cases = e.cases
	e.release.Cases = e.cases
	e.release.Verifiers = e.verifiers
	e.logger = e.logger.With("module", "crowdfund")
	return e, nil
}

// Thresholds returns the voting thresholds in force.
func (e *Engine) Thresholds() Thresholds {
	return e.voting.Thresholds
}

// Ledger exposes the underlying ledger for status and log queries.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// CallOption tunes a single operation.
type CallOption func(*callOptions)

type callOptions struct {
	expect ledger.Expectation
}

// ExpectVersion makes the operation fail with ledger.ErrConflict unless
// account is still at version.
func ExpectVersion(account ids.ID, version uint64) CallOption {
	return func(o *callOptions) {
		if o.expect == nil {
			o.expect = ledger.Expectation{}
		}
		o.expect[account] = version
	}
}

// Receipt identifies a committed operation.
type Receipt struct {
	TxID        string    `json:"txId"`
	Seq         uint64    `json:"seq"`
	EntryID     ids.ID    `json:"entryId"`
	CommittedAt time.Time `json:"committedAt"`
}

type AdminReceipt struct {
	Receipt
	Administrator *Administrator `json:"administrator"`
}

type SubmitCaseReceipt struct {
	Receipt
	CaseID string `json:"caseId"`
	Case   *Case  `json:"case"`
}

type VoteReceipt struct {
	Receipt
	Case         *Case `json:"case"`
	Transitioned bool  `json:"transitioned"`
}

type DonationReceipt struct {
	Receipt
	Case   *Case          `json:"case"`
	Escrow *EscrowAccount `json:"escrow"`
	Donor  *DonorRecord   `json:"donor"`
}

type ReleaseReceipt struct {
	Receipt
	Case     *Case            `json:"case"`
	Facility *FacilityAccount `json:"facility"`
	Amount   uint64           `json:"amount"`
}

type VerifierReceipt struct {
	Receipt
	Verifier *Verifier `json:"verifier"`
}

type CloseReceipt struct {
	Receipt
	Case *Case `json:"case"`
}

// run executes apply as one ledger operation and records the outcome.
func (e *Engine) run(ctx context.Context, name, caller string, meta map[string]string, opts []CallOption, apply func(tx *ledger.Tx) error) (Receipt, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	res, err := e.ledger.Execute(ctx, ledger.Operation{Name: name, Caller: caller, Apply: apply}, co.expect)
	if err != nil {
		reason := err.Error()
		if code, ok := CodeOf(err); ok {
			reason = string(code)
		} else if errors.Is(err, ledger.ErrConflict) {
			reason = "CONFLICT"
		}
		e.audit.LogEvent(audit.NewEvent(name, caller, audit.ResultFailure, reason, meta))
		e.logger.Debug("operation refused", "event", name, "caller", caller, "reason", reason)
		return Receipt{}, err
	}
	rc := Receipt{
		TxID:        uuid.NewString(),
		Seq:         res.Seq,
		EntryID:     res.EntryID,
		CommittedAt: res.CommittedAt,
	}
	if meta == nil {
		meta = map[string]string{}
	}
	meta["seq"] = strconv.FormatUint(res.Seq, 10)
	meta["txId"] = rc.TxID
	e.audit.LogEvent(audit.NewEvent(name, caller, audit.ResultSuccess, "", meta))
	e.logger.Info("operation committed", "event", name, "caller", caller, "seq", res.Seq)
	return rc, nil
}

// InitializeAdministrator installs the single genesis administrator.
func (e *Engine) InitializeAdministrator(ctx context.Context, initializer, admin string, opts ...CallOption) (AdminReceipt, error) {
	var out AdminReceipt
	rc, err := e.run(ctx, "initialize_administrator", initializer, map[string]string{"admin": admin}, opts, func(tx *ledger.Tx) error {
		a, err := e.verifiers.InitializeAdministrator(tx, initializer, admin)
		out.Administrator = a
		return err
	})
	out.Receipt = rc
	return out, err
}

// InitializeRegistry creates the verifier list and the case counter.
func (e *Engine) InitializeRegistry(ctx context.Context, admin string, opts ...CallOption) (Receipt, error) {
	return e.run(ctx, "initialize_registry", admin, nil, opts, func(tx *ledger.Tx) error {
		return e.verifiers.InitializeRegistry(tx, admin)
	})
}

// SubmitCase opens a new case for in.Patient.
func (e *Engine) SubmitCase(ctx context.Context, in SubmitCase, opts ...CallOption) (SubmitCaseReceipt, error) {
	var out SubmitCaseReceipt
	meta := map[string]string{"amountNeeded": strconv.FormatUint(in.AmountNeeded, 10)}
	rc, err := e.run(ctx, "submit_case", in.Patient, meta, opts, func(tx *ledger.Tx) error {
		c, err := e.cases.Submit(tx, in)
		if err != nil {
			return err
		}
		out.Case = c
		out.CaseID = c.CaseID
		meta["caseId"] = c.CaseID
		return nil
	})
	out.Receipt = rc
	return out, err
}

// CloseRejectedCase lets the patient retire a rejected case.
func (e *Engine) CloseRejectedCase(ctx context.Context, caller, caseID string, opts ...CallOption) (CloseReceipt, error) {
	var out CloseReceipt
	rc, err := e.run(ctx, "close_rejected_case", caller, map[string]string{"caseId": caseID}, opts, func(tx *ledger.Tx) error {
		c, err := e.cases.CloseRejected(tx, caller, caseID)
		out.Case = c
		return err
	})
	out.Receipt = rc
	return out, err
}

// AddOrRemoveVerifier changes a verifier's membership.
func (e *Engine) AddOrRemoveVerifier(ctx context.Context, admin, target string, op VerifierOp, opts ...CallOption) (VerifierReceipt, error) {
	var out VerifierReceipt
	meta := map[string]string{"verifier": target, "op": string(op)}
	rc, err := e.run(ctx, "add_or_remove_verifier", admin, meta, opts, func(tx *ledger.Tx) error {
		v, err := e.verifiers.AddOrRemove(tx, admin, target, op)
		out.Verifier = v
		return err
	})
	out.Receipt = rc
	return out, err
}

// CastVote records a verifier's vote and applies any status transition.
func (e *Engine) CastVote(ctx context.Context, verifier, caseID string, approve bool, opts ...CallOption) (VoteReceipt, error) {
	var out VoteReceipt
	meta := map[string]string{"caseId": caseID, "approve": strconv.FormatBool(approve)}
	rc, err := e.run(ctx, "cast_vote", verifier, meta, opts, func(tx *ledger.Tx) error {
		c, moved, err := e.voting.CastVote(tx, verifier, caseID, approve)
		out.Case = c
		out.Transitioned = moved
		return err
	})
	out.Receipt = rc
	if err != nil {
		return out, err
	}
	if out.Transitioned {
		ev := notify.EventCaseVerified
		if out.Case.Status == StatusRejected {
			ev = notify.EventCaseRejected
		}
		e.notifier.Notify(notify.Notification{
			Event:     ev,
			CaseID:    caseID,
			Type:      notify.NotifyPatient,
			Recipient: out.Case.Patient,
			Reason:    fmt.Sprintf("%d yes / %d no", out.Case.YesVotes, out.Case.NoVotes),
			Seq:       rc.Seq,
		})
	}
	return out, nil
}

// Donate moves amount from donor into the case escrow.
func (e *Engine) Donate(ctx context.Context, donor, caseID string, amount uint64, opts ...CallOption) (DonationReceipt, error) {
	var out DonationReceipt
	meta := map[string]string{"caseId": caseID, "amount": strconv.FormatUint(amount, 10)}
	rc, err := e.run(ctx, "donate", donor, meta, opts, func(tx *ledger.Tx) error {
		d, err := e.escrow.Donate(tx, donor, caseID, amount)
		if err != nil {
			return err
		}
		out.Case, out.Escrow, out.Donor = d.Case, d.Escrow, d.Donor
		return nil
	})
	out.Receipt = rc
	if err != nil {
		return out, err
	}
	if out.Case.FullyFunded() {
		for _, n := range []notify.Notification{
			{Type: notify.NotifyPatient, Recipient: out.Case.Patient},
			{Type: notify.NotifyAdmin},
		} {
			n.Event = notify.EventCaseFullyFunded
			n.CaseID = caseID
			n.Seq = rc.Seq
			e.notifier.Notify(n)
		}
	}
	return out, nil
}

// ReleaseFunds pays the escrow of a funded case out to facility. The admin
// and three distinct active verifiers must all have authorized the call.
func (e *Engine) ReleaseFunds(ctx context.Context, admin, caseID, facility string, cosigners []string, opts ...CallOption) (ReleaseReceipt, error) {
	var out ReleaseReceipt
	meta := map[string]string{"caseId": caseID, "facility": facility}
	rc, err := e.run(ctx, "release_funds", admin, meta, opts, func(tx *ledger.Tx) error {
		r, err := e.release.ReleaseFunds(tx, admin, caseID, facility, cosigners)
		if err != nil {
			return err
		}
		out.Case, out.Facility, out.Amount = r.Case, r.Facility, r.Amount
		return nil
	})
	out.Receipt = rc
	if err != nil {
		return out, err
	}
	reason := strconv.FormatUint(out.Amount, 10) + " released"
	e.notifier.Notify(notify.Notification{Event: notify.EventFundsReleased, CaseID: caseID, Type: notify.NotifyFacility, Recipient: facility, Reason: reason, Seq: rc.Seq})
	e.notifier.Notify(notify.Notification{Event: notify.EventFundsReleased, CaseID: caseID, Type: notify.NotifyPatient, Recipient: out.Case.Patient, Reason: reason, Seq: rc.Seq})
	return out, nil
}
