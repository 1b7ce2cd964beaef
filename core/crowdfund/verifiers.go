package crowdfund

import (
	"curachain/core/ledger"
)

// VerifierOp selects what AddOrRemove does.
type VerifierOp string

const (
	VerifierAdd    VerifierOp = "add"
	VerifierRemove VerifierOp = "remove"
)

// VerifierRegistry owns the administrator and verifier accounts.
type VerifierRegistry struct{}

// InitializeAdministrator installs the genesis administrator. It can run once.
func (VerifierRegistry) InitializeAdministrator(tx *ledger.Tx, initializer, admin string) (*Administrator, error) {
	if initializer == "" {
		return nil, ErrUnauthorized
	}
	if admin == "" {
		return nil, newError(CodeInvalidPayload, "administrator identity is required")
	}
	exists, err := tx.Has(AdminConfigAddress())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newError(CodeAlreadyInitialized, "administrator already initialized")
	}
	cfg := AdminConfig{GenesisAdmin: admin, InitializedAt: tx.Now()}
	a := &Administrator{Identity: admin, IsActive: true, CreatedAt: tx.Now()}
	if err := tx.Put(AdminConfigAddress(), kindAdminConfig, cfg); err != nil {
		return nil, err
	}
	if err := tx.Put(AdminAddress(admin), kindAdmin, a); err != nil {
		return nil, err
	}
	return a, nil
}

// InitializeRegistry creates the empty verifier list and the case counter.
func (r VerifierRegistry) InitializeRegistry(tx *ledger.Tx, admin string) error {
	if err := r.requireAdmin(tx, admin); err != nil {
		return err
	}
	listExists, err := tx.Has(VerifierListAddress())
	if err != nil {
		return err
	}
	counterExists, err := tx.Has(CaseCounterAddress())
	if err != nil {
		return err
	}
	if listExists || counterExists {
		return newError(CodeAlreadyInitialized, "verifier registry already initialized")
	}
	if err := tx.Put(VerifierListAddress(), kindVerifierList, VerifierRegistryList{Entries: []VerifierEntry{}}); err != nil {
		return err
	}
	return tx.Put(CaseCounterAddress(), kindCaseCounter, CaseCounter{})
}

// AddOrRemove adds (or reactivates) a verifier, or soft-deletes one.
func (r VerifierRegistry) AddOrRemove(tx *ledger.Tx, admin, target string, op VerifierOp) (*Verifier, error) {
	if err := r.requireAdmin(tx, admin); err != nil {
		return nil, err
	}
	if target == "" {
		return nil, newError(CodeInvalidPayload, "verifier identity is required")
	}
	if op != VerifierAdd && op != VerifierRemove {
		return nil, newError(CodeInvalidPayload, "unknown verifier operation", "op", string(op))
	}

	var list VerifierRegistryList
	found, err := tx.Get(VerifierListAddress(), &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInitialized
	}

	var v Verifier
	exists, err := tx.Get(VerifierAddress(target), &v)
	if err != nil {
		return nil, err
	}
	switch op {
	case VerifierAdd:
		if !exists {
			v = Verifier{Identity: target, AddedAt: tx.Now()}
		}
		v.IsActive = true
	case VerifierRemove:
		if !exists {
			return nil, newError(CodeVerifierNotFound, "verifier not found", "identity", target)
		}
		v.IsActive = false
	}
	v.UpdatedAt = tx.Now()
	list.set(target, v.IsActive)

	if err := tx.Put(VerifierAddress(target), kindVerifier, v); err != nil {
		return nil, err
	}
	if err := tx.Put(VerifierListAddress(), kindVerifierList, list); err != nil {
		return nil, err
	}
	return &v, nil
}

// IsActiveAdmin reports whether identity holds an active administrator account.
func (VerifierRegistry) IsActiveAdmin(tx *ledger.Tx, identity string) (bool, error) {
	if identity == "" {
		return false, nil
	}
	var a Administrator
	found, err := tx.Get(AdminAddress(identity), &a)
	if err != nil {
		return false, err
	}
	return found && a.IsActive, nil
}

// IsActiveVerifier reports whether identity holds an active verifier account.
func (VerifierRegistry) IsActiveVerifier(tx *ledger.Tx, identity string) (bool, error) {
	if identity == "" {
		return false, nil
	}
	var v Verifier
	found, err := tx.Get(VerifierAddress(identity), &v)
	if err != nil {
		return false, err
	}
	return found && v.IsActive, nil
}

// ActiveCount is the quorum denominator: active entries in the registry list.
func (VerifierRegistry) ActiveCount(tx *ledger.Tx) (int, error) {
	var list VerifierRegistryList
	found, err := tx.Get(VerifierListAddress(), &list)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotInitialized
	}
	return list.ActiveCount(), nil
}

func (r VerifierRegistry) requireAdmin(tx *ledger.Tx, identity string) error {
	ok, err := r.IsActiveAdmin(tx, identity)
	if err != nil {
		return err
	}
	if !ok {
		return newError(CodeUnauthorized, "caller is not an active administrator", "identity", identity)
	}
	return nil
}
