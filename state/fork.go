package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	lru "github.com/hashicorp/golang-lru"
)

// default capacity of the remote read caches
const defaultCacheSize = 4096

// NewForkDB creates a StateDB whose initial state mirrors the historic block
// the given reader is pinned to. All mutations are kept in memory; nothing is
// written back. A cacheSize of zero or less selects the default capacity.
func NewForkDB(reader Reader, cacheSize int) StateDB {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	accounts, _ := lru.New(cacheSize)
	codes, _ := lru.New(cacheSize)
	slots, _ := lru.New(cacheSize)
	return &forkDB{
		reader:   reader,
		state:    makeSnapshot(nil, 0, false),
		deleted:  map[common.Address]int{},
		accounts: accounts,
		codes:    codes,
		slots:    slots,
	}
}

// forkDB keeps replay-local state mutations in a chain of snapshots layered
// over remote reads at the fork block. The snapshot chain also backs the
// EVM's revert mechanism.
type forkDB struct {
	reader Reader
	state  *snapshot

	snapshotCounter int
	deleted         map[common.Address]int // addr -> snapshot id at deletion

	txHash   common.Hash
	txIndex  uint
	txStart  int // id of the snapshot opened by BeginTransaction

	fetchErr error

	accounts *lru.Cache // common.Address -> remoteAccount
	codes    *lru.Cache // common.Address -> []byte
	slots    *lru.Cache // slotKey -> common.Hash
}

type slotKey struct {
	addr common.Address
	key  common.Hash
}

type remoteAccount struct {
	balance *big.Int
	nonce   uint64
}

// snapshot is one layer of state mutations. A barrier snapshot marks a
// transaction boundary: access list, transient storage and refund lookups
// do not cross it.
type snapshot struct {
	parent  *snapshot
	id      int
	barrier bool

	touched          map[common.Address]struct{}
	balances         map[common.Address]*big.Int
	nonces           map[common.Address]uint64
	codes            map[common.Address][]byte
	created          map[common.Address]struct{}
	selfdestructed   map[common.Address]struct{}
	storage          map[slotKey]common.Hash
	transient        map[slotKey]common.Hash
	accessedAccounts map[common.Address]struct{}
	accessedSlots    map[slotKey]struct{}
	logs             []*types.Log
	refund           uint64
}

func makeSnapshot(parent *snapshot, id int, barrier bool) *snapshot {
	var refund uint64
	if parent != nil && !barrier {
		refund = parent.refund
	}
	return &snapshot{
		parent:           parent,
		id:               id,
		barrier:          barrier,
		touched:          map[common.Address]struct{}{},
		balances:         map[common.Address]*big.Int{},
		nonces:           map[common.Address]uint64{},
		codes:            map[common.Address][]byte{},
		created:          map[common.Address]struct{}{},
		selfdestructed:   map[common.Address]struct{}{},
		storage:          map[slotKey]common.Hash{},
		transient:        map[slotKey]common.Hash{},
		accessedAccounts: map[common.Address]struct{}{},
		accessedSlots:    map[slotKey]struct{}{},
		refund:           refund,
	}
}

func (db *forkDB) push(barrier bool) *snapshot {
	db.snapshotCounter++
	db.state = makeSnapshot(db.state, db.snapshotCounter, barrier)
	return db.state
}

// recordFetchErr keeps the first remote read failure of the run. Replay
// results obtained after a failure are discarded by the driver.
func (db *forkDB) recordFetchErr(err error) {
	if db.fetchErr == nil {
		db.fetchErr = err
	}
}

func (db *forkDB) Error() error {
	return db.fetchErr
}

// remote account reads, cached

func (db *forkDB) remoteAccount(addr common.Address) remoteAccount {
	if cached, ok := db.accounts.Get(addr); ok {
		return cached.(remoteAccount)
	}
	balance, err := db.reader.Balance(addr)
	if err != nil {
		db.recordFetchErr(err)
		return remoteAccount{balance: new(big.Int)}
	}
	nonce, err := db.reader.Nonce(addr)
	if err != nil {
		db.recordFetchErr(err)
		return remoteAccount{balance: new(big.Int)}
	}
	account := remoteAccount{balance: balance, nonce: nonce}
	db.accounts.Add(addr, account)
	return account
}

func (db *forkDB) remoteCode(addr common.Address) []byte {
	if cached, ok := db.codes.Get(addr); ok {
		return cached.([]byte)
	}
	code, err := db.reader.Code(addr)
	if err != nil {
		db.recordFetchErr(err)
		return nil
	}
	db.codes.Add(addr, code)
	return code
}

func (db *forkDB) remoteStorage(addr common.Address, key common.Hash) common.Hash {
	id := slotKey{addr, key}
	if cached, ok := db.slots.Get(id); ok {
		return cached.(common.Hash)
	}
	value, err := db.reader.Storage(addr, key)
	if err != nil {
		db.recordFetchErr(err)
		return common.Hash{}
	}
	db.slots.Add(id, value)
	return value
}

// wipedAt reports whether account history older than the given snapshot
// is masked, either by a finished selfdestruct or by a re-creation.
func (db *forkDB) wipedAt(s *snapshot, addr common.Address) bool {
	if _, exists := s.created[addr]; exists {
		return true
	}
	delID, deleted := db.deleted[addr]
	return deleted && s.id < delID
}

// account management

func (db *forkDB) CreateAccount(addr common.Address) {
	// re-creation wipes nonce, code and storage but keeps the balance
	balance := db.GetBalance(addr)
	db.state.touched[addr] = struct{}{}
	db.state.created[addr] = struct{}{}
	db.state.balances[addr] = balance
}

func (db *forkDB) Exist(addr common.Address) bool {
	for s := db.state; s != nil; s = s.parent {
		if delID, deleted := db.deleted[addr]; deleted && s.id < delID {
			return false
		}
		if _, exists := s.touched[addr]; exists {
			return true
		}
	}
	account := db.remoteAccount(addr)
	return account.nonce != 0 || account.balance.Sign() != 0 || len(db.remoteCode(addr)) != 0
}

func (db *forkDB) Empty(addr common.Address) bool {
	return db.GetNonce(addr) == 0 && db.GetBalance(addr).Sign() == 0 && db.GetCodeSize(addr) == 0
}

// balance

func (db *forkDB) GetBalance(addr common.Address) *big.Int {
	for s := db.state; s != nil; s = s.parent {
		if val, exists := s.balances[addr]; exists {
			return new(big.Int).Set(val)
		}
		if db.wipedAt(s, addr) {
			return new(big.Int)
		}
	}
	return new(big.Int).Set(db.remoteAccount(addr).balance)
}

func (db *forkDB) AddBalance(addr common.Address, value *big.Int) {
	if value.Sign() == 0 {
		return
	}
	db.state.touched[addr] = struct{}{}
	db.state.balances[addr] = new(big.Int).Add(db.GetBalance(addr), value)
}

func (db *forkDB) SubBalance(addr common.Address, value *big.Int) {
	if value.Sign() == 0 {
		return
	}
	db.state.touched[addr] = struct{}{}
	db.state.balances[addr] = new(big.Int).Sub(db.GetBalance(addr), value)
}

// nonce

func (db *forkDB) GetNonce(addr common.Address) uint64 {
	for s := db.state; s != nil; s = s.parent {
		if val, exists := s.nonces[addr]; exists {
			return val
		}
		if db.wipedAt(s, addr) {
			return 0
		}
	}
	return db.remoteAccount(addr).nonce
}

func (db *forkDB) SetNonce(addr common.Address, value uint64) {
	db.state.touched[addr] = struct{}{}
	db.state.nonces[addr] = value
}

// code

func (db *forkDB) GetCode(addr common.Address) []byte {
	for s := db.state; s != nil; s = s.parent {
		if code, exists := s.codes[addr]; exists {
			return code
		}
		if db.wipedAt(s, addr) {
			return nil
		}
	}
	return db.remoteCode(addr)
}

func (db *forkDB) SetCode(addr common.Address, code []byte) {
	db.state.touched[addr] = struct{}{}
	db.state.codes[addr] = code
}

func (db *forkDB) GetCodeSize(addr common.Address) int {
	return len(db.GetCode(addr))
}

func (db *forkDB) GetCodeHash(addr common.Address) common.Hash {
	if !db.Exist(addr) {
		return common.Hash{}
	}
	code := db.GetCode(addr)
	if len(code) == 0 {
		return types.EmptyCodeHash
	}
	return crypto.Keccak256Hash(code)
}

// storage

func (db *forkDB) GetState(addr common.Address, key common.Hash) common.Hash {
	id := slotKey{addr, key}
	for s := db.state; s != nil; s = s.parent {
		if val, exists := s.storage[id]; exists {
			return val
		}
		if db.wipedAt(s, addr) {
			return common.Hash{}
		}
	}
	return db.remoteStorage(addr, key)
}

// GetCommittedState resolves the slot value as of the start of the current
// transaction, skipping the mutations the transaction itself made.
func (db *forkDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	id := slotKey{addr, key}
	for s := db.state; s != nil; s = s.parent {
		if s.id >= db.txStart {
			continue
		}
		if val, exists := s.storage[id]; exists {
			return val
		}
		if db.wipedAt(s, addr) {
			return common.Hash{}
		}
	}
	return db.remoteStorage(addr, key)
}

func (db *forkDB) SetState(addr common.Address, key common.Hash, value common.Hash) {
	db.state.touched[addr] = struct{}{}
	db.state.storage[slotKey{addr, key}] = value
}

// transient storage, scoped to the current transaction

func (db *forkDB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	id := slotKey{addr, key}
	for s := db.state; s != nil; s = s.parent {
		if val, exists := s.transient[id]; exists {
			return val
		}
		if s.barrier {
			break
		}
	}
	return common.Hash{}
}

func (db *forkDB) SetTransientState(addr common.Address, key, value common.Hash) {
	db.state.transient[slotKey{addr, key}] = value
}

// selfdestruct

func (db *forkDB) SelfDestruct(addr common.Address) {
	db.state.touched[addr] = struct{}{}
	db.state.selfdestructed[addr] = struct{}{}
	db.state.balances[addr] = new(big.Int)
}

func (db *forkDB) HasSelfDestructed(addr common.Address) bool {
	for s := db.state; s != nil; s = s.parent {
		if _, exists := s.selfdestructed[addr]; exists {
			return true
		}
		if s.barrier {
			break
		}
	}
	return false
}

// Selfdestruct6780 destroys the account only when it was created within the
// current transaction (EIP-6780).
func (db *forkDB) Selfdestruct6780(addr common.Address) {
	for s := db.state; s != nil; s = s.parent {
		if _, exists := s.created[addr]; exists {
			db.SelfDestruct(addr)
			return
		}
		if s.barrier {
			break
		}
	}
}

// refund counter, scoped to the current transaction

func (db *forkDB) AddRefund(gas uint64) {
	db.state.refund += gas
}

func (db *forkDB) SubRefund(gas uint64) {
	db.state.refund -= gas
}

func (db *forkDB) GetRefund() uint64 {
	return db.state.refund
}

// access list, scoped to the current transaction

func (db *forkDB) AddressInAccessList(addr common.Address) bool {
	for s := db.state; s != nil; s = s.parent {
		if _, exists := s.accessedAccounts[addr]; exists {
			return true
		}
		if s.barrier {
			break
		}
	}
	return false
}

func (db *forkDB) SlotInAccessList(addr common.Address, key common.Hash) (addressOk bool, slotOk bool) {
	addressOk = db.AddressInAccessList(addr)
	id := slotKey{addr, key}
	for s := db.state; s != nil; s = s.parent {
		if _, exists := s.accessedSlots[id]; exists {
			slotOk = true
			return
		}
		if s.barrier {
			break
		}
	}
	return
}

func (db *forkDB) AddAddressToAccessList(addr common.Address) {
	db.state.accessedAccounts[addr] = struct{}{}
}

func (db *forkDB) AddSlotToAccessList(addr common.Address, key common.Hash) {
	db.AddAddressToAccessList(addr)
	db.state.accessedSlots[slotKey{addr, key}] = struct{}{}
}

// Prepare opens the access scope of a new message. The EVM calls this at the
// start of every state transition.
func (db *forkDB) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	db.push(true)
	if !rules.IsBerlin {
		return
	}
	db.AddAddressToAccessList(sender)
	if dest != nil {
		db.AddAddressToAccessList(*dest)
	}
	for _, addr := range precompiles {
		db.AddAddressToAccessList(addr)
	}
	for _, el := range txAccesses {
		db.AddAddressToAccessList(el.Address)
		for _, key := range el.StorageKeys {
			db.AddSlotToAccessList(el.Address, key)
		}
	}
	if rules.IsShanghai {
		db.AddAddressToAccessList(coinbase)
	}
}

// snapshots

func (db *forkDB) Snapshot() int {
	res := db.state.id
	db.push(false)
	return res
}

func (db *forkDB) RevertToSnapshot(id int) {
	for ; db.state != nil && db.state.id != id; db.state = db.state.parent {
		// nothing
	}
	if db.state == nil {
		panic(fmt.Errorf("unable to revert to snapshot %d", id))
	}
}

// logs

func (db *forkDB) AddLog(log *types.Log) {
	log.TxHash = db.txHash
	log.TxIndex = db.txIndex
	db.state.logs = append(db.state.logs, log)
}

func (db *forkDB) AddPreimage(common.Hash, []byte) {
	// preimages are not tracked
}

func collectLogs(s *snapshot, since int) []*types.Log {
	if s == nil || s.id < since {
		return nil
	}
	logs := collectLogs(s.parent, since)
	return append(logs, s.logs...)
}

// TxLogs returns the logs emitted by the current transaction. Indices are
// numbered from 0 within the transaction, not block-cumulatively as in
// receipts; callers comparing against receipts must not rely on Index.
func (db *forkDB) TxLogs() []*types.Log {
	logs := collectLogs(db.state, db.txStart)
	for i, log := range logs {
		log.Index = uint(i)
	}
	return logs
}

// transaction scope

func (db *forkDB) BeginTransaction(txHash common.Hash, txIndex uint) {
	s := db.push(true)
	db.txHash = txHash
	db.txIndex = txIndex
	db.txStart = s.id
}

// EndTransaction finalizes the scope of the current transaction. Accounts
// selfdestructed by it are removed; their history is masked for all
// subsequent reads.
func (db *forkDB) EndTransaction() {
	for s := db.state; s != nil && s.id >= db.txStart; s = s.parent {
		for addr := range s.selfdestructed {
			db.state.balances[addr] = new(big.Int)
			db.state.nonces[addr] = 0
			db.state.codes[addr] = nil
			db.deleted[addr] = db.state.id
		}
	}
}

// overrides

func (db *forkDB) InstallOverrides(overrides map[common.Address][]byte) {
	for addr, code := range overrides {
		db.SetCode(addr, code)
	}
}
