/*
Package testmeta provides a small hand-built Avail-like runtime metadata with
System, Utility, Balances, Staking and DataAvailability pallets along with
encoders for the most common storage values and events. It's used in tests
where a real node metadata blob would be too heavy.
*/
package testmeta

import (
	"encoding/binary"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
)

// Pallet indexes.
const (
	SystemIndex           uint8 = 0
	UtilityIndex          uint8 = 1
	BalancesIndex         uint8 = 6
	StakingIndex          uint8 = 10
	DataAvailabilityIndex uint8 = 29
)

// Type IDs of the registry.
const (
	TU8 int64 = iota
	TU32
	TU64
	TU128
	TBytes32
	TAccountID
	TBytes
	TBool
	TH256
	TCompactU128
	TMultiAddress
	TAccountData
	TAccountInfo
	TWeight
	TCompactU64
	TDispatchClass
	TPays
	TDispatchInfo
	TModuleError
	TBytes4
	TDispatchError
	TSystemEvent
	TBalancesEvent
	TDAEvent
	TAppID
	TCompactU32
	TUtilityEvent
	TRuntimeEvent
	TStakingEvent
	TPhase
	TEventRecord
	TH256Vec
	TEventRecordVec
	TSystemCall
	TBalancesCall
	TDACall
	TUtilityCall
	TCallVec
	TRuntimeCall
	TStakingCall
	TRewardDestination
	TMultiAddressVec
	TAppKeyInfo
	TActiveEraInfo
	TOptionU64
	TSystemError
	TBalancesError
	TDAError
	TStr
	TU16
	TUtilityError
	TStakingError
)

func prim(p metadata.Primitive) *metadata.TypeDef {
	return &metadata.TypeDef{Kind: metadata.DefPrimitive, Primitive: p}
}

func f(name string, id int64) metadata.Field {
	return metadata.Field{Name: name, TypeID: id}
}

func comp(path string, fields ...metadata.Field) *metadata.TypeDef {
	t := &metadata.TypeDef{Kind: metadata.DefComposite, Fields: fields}
	if path != "" {
		t.Path = []string{path}
	}
	return t
}

func enum(path string, vs ...metadata.Variant) *metadata.TypeDef {
	t := &metadata.TypeDef{Kind: metadata.DefVariant, Variants: vs}
	if path != "" {
		t.Path = []string{path}
	}
	return t
}

func v(name string, idx uint8, fields ...metadata.Field) metadata.Variant {
	return metadata.Variant{Name: name, Index: idx, Fields: fields}
}

func seq(elem int64) *metadata.TypeDef {
	return &metadata.TypeDef{Kind: metadata.DefSequence, Elem: elem}
}

func arr(n uint32, elem int64) *metadata.TypeDef {
	return &metadata.TypeDef{Kind: metadata.DefArray, Len: n, Elem: elem}
}

func compact(elem int64) *metadata.TypeDef {
	return &metadata.TypeDef{Kind: metadata.DefCompact, Elem: elem}
}

func registry() metadata.Registry {
	return metadata.Registry{
		TU8:           prim(metadata.U8),
		TU32:          prim(metadata.U32),
		TU64:          prim(metadata.U64),
		TU128:         prim(metadata.U128),
		TBytes32:      arr(32, TU8),
		TAccountID:    comp("AccountId32", f("", TBytes32)),
		TBytes:        seq(TU8),
		TBool:         prim(metadata.Bool),
		TH256:         comp("H256", f("", TBytes32)),
		TCompactU128:  compact(TU128),
		TMultiAddress: enum("MultiAddress", v("Id", 0, f("", TAccountID)), v("Raw", 2, f("", TBytes)), v("Address32", 3, f("", TBytes32))),
		TAccountData:  comp("AccountData", f("free", TU128), f("reserved", TU128), f("frozen", TU128), f("flags", TU128)),
		TAccountInfo: comp("AccountInfo", f("nonce", TU32), f("consumers", TU32), f("providers", TU32),
			f("sufficients", TU32), f("data", TAccountData)),
		TWeight:        comp("Weight", f("ref_time", TCompactU64), f("proof_size", TCompactU64)),
		TCompactU64:    compact(TU64),
		TDispatchClass: enum("DispatchClass", v("Normal", 0), v("Operational", 1), v("Mandatory", 2)),
		TPays:          enum("Pays", v("Yes", 0), v("No", 1)),
		TDispatchInfo:  comp("DispatchInfo", f("weight", TWeight), f("class", TDispatchClass), f("pays_fee", TPays)),
		TModuleError:   comp("ModuleError", f("index", TU8), f("error", TBytes4)),
		TBytes4:        arr(4, TU8),
		TDispatchError: enum("DispatchError", v("Other", 0), v("CannotLookup", 1), v("BadOrigin", 2),
			v("Module", 3, f("", TModuleError)), v("ConsumerRemaining", 4), v("NoProviders", 5)),
		TSystemEvent: enum("Event",
			v("ExtrinsicSuccess", 0, f("dispatch_info", TDispatchInfo)),
			v("ExtrinsicFailed", 1, f("dispatch_error", TDispatchError), f("dispatch_info", TDispatchInfo)),
			v("NewAccount", 3, f("account", TAccountID)),
			v("Remarked", 7, f("sender", TAccountID), f("hash", TH256))),
		TBalancesEvent: enum("Event",
			v("Transfer", 2, f("from", TAccountID), f("to", TAccountID), f("amount", TU128)),
			v("Withdraw", 8, f("who", TAccountID), f("amount", TU128))),
		TDAEvent: enum("Event",
			v("ApplicationKeyCreated", 0, f("key", TBytes), f("owner", TAccountID), f("id", TAppID)),
			v("DataSubmitted", 1, f("who", TAccountID), f("data_hash", TH256))),
		TAppID:      comp("AppId", f("", TCompactU32)),
		TCompactU32: compact(TU32),
		TUtilityEvent: enum("Event",
			v("BatchInterrupted", 0, f("index", TU32), f("error", TDispatchError)),
			v("BatchCompleted", 1),
			v("BatchCompletedWithErrors", 2),
			v("ItemCompleted", 3)),
		TRuntimeEvent: enum("RuntimeEvent",
			v("System", SystemIndex, f("", TSystemEvent)),
			v("Utility", UtilityIndex, f("", TUtilityEvent)),
			v("Balances", BalancesIndex, f("", TBalancesEvent)),
			v("Staking", StakingIndex, f("", TStakingEvent)),
			v("DataAvailability", DataAvailabilityIndex, f("", TDAEvent))),
		TStakingEvent: enum("Event",
			v("Bonded", 7, f("stash", TAccountID), f("amount", TU128)),
			v("Unbonded", 8, f("stash", TAccountID), f("amount", TU128)),
			v("Chilled", 14, f("stash", TAccountID))),
		TPhase:          enum("Phase", v("ApplyExtrinsic", 0, f("", TU32)), v("Finalization", 1), v("Initialization", 2)),
		TEventRecord:    comp("EventRecord", f("phase", TPhase), f("event", TRuntimeEvent), f("topics", TH256Vec)),
		TH256Vec:        seq(TH256),
		TEventRecordVec: seq(TEventRecord),
		TSystemCall: enum("Call",
			v("remark", 0, f("remark", TBytes)),
			v("remark_with_event", 7, f("remark", TBytes))),
		TBalancesCall: enum("Call",
			v("transfer_allow_death", 0, f("dest", TMultiAddress), f("value", TCompactU128)),
			v("transfer_keep_alive", 3, f("dest", TMultiAddress), f("value", TCompactU128)),
			v("transfer_all", 4, f("dest", TMultiAddress), f("keep_alive", TBool))),
		TDACall: enum("Call",
			v("create_application_key", 0, f("key", TBytes)),
			v("submit_data", 1, f("data", TBytes))),
		TUtilityCall: enum("Call",
			v("batch", 0, f("calls", TCallVec)),
			v("batch_all", 2, f("calls", TCallVec)),
			v("force_batch", 4, f("calls", TCallVec))),
		TCallVec: seq(TRuntimeCall),
		TRuntimeCall: enum("RuntimeCall",
			v("System", SystemIndex, f("", TSystemCall)),
			v("Utility", UtilityIndex, f("", TUtilityCall)),
			v("Balances", BalancesIndex, f("", TBalancesCall)),
			v("Staking", StakingIndex, f("", TStakingCall)),
			v("DataAvailability", DataAvailabilityIndex, f("", TDACall))),
		TStakingCall: enum("Call",
			v("bond", 0, f("value", TCompactU128), f("payee", TRewardDestination)),
			v("bond_extra", 1, f("max_additional", TCompactU128)),
			v("unbond", 2, f("value", TCompactU128)),
			v("nominate", 5, f("targets", TMultiAddressVec)),
			v("chill", 6)),
		TRewardDestination: enum("RewardDestination", v("Staked", 0), v("Stash", 1), v("Controller", 2),
			v("Account", 3, f("", TAccountID)), v("None", 4)),
		TMultiAddressVec: seq(TMultiAddress),
		TAppKeyInfo:      comp("AppKeyInfo", f("owner", TAccountID), f("id", TAppID)),
		TActiveEraInfo:   comp("ActiveEraInfo", f("index", TU32), f("start", TOptionU64)),
		TOptionU64:       enum("Option", v("None", 0), v("Some", 1, f("", TU64))),
		TSystemError:     enum("Error", v("InvalidSpecName", 0), v("SpecVersionNeedsToIncrease", 1), v("CallFiltered", 5)),
		TBalancesError: enum("Error", v("VestingBalance", 0), v("LiquidityRestrictions", 1),
			v("InsufficientBalance", 2), v("ExistentialDeposit", 3), v("Expendability", 4)),
		TDAError: enum("Error", v("AppKeyAlreadyExists", 0), v("AppKeyCannotBeEmpty", 1),
			v("LastAppIdOverflowed", 2), v("DataCannotBeEmpty", 3)),
		TStr:          prim(metadata.Str),
		TU16:          prim(metadata.U16),
		TUtilityError: enum("Error", v("TooManyCalls", 0)),
		TStakingError: enum("Error", v("NotController", 0), v("NotStash", 1), v("AlreadyBonded", 2),
			v("InsufficientBond", 23)),
	}
}

// Constant values.
const (
	BlockHashCount   uint32 = 4096
	SS58Prefix       uint16 = 42
	MaxAppDataLength uint32 = 524288
	MaxAppKeyLength  uint32 = 64
)

// ExistentialDeposit is the Balances.ExistentialDeposit constant value.
var ExistentialDeposit = new(big.Int).Exp(big.NewInt(10), big.NewInt(13), nil)

func u32(n uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, n)
}

func pallets() []*metadata.Pallet {
	accountFallback := make([]byte, 16+64)
	return []*metadata.Pallet{
		{
			Name: "System", Index: SystemIndex,
			Calls: TSystemCall, Events: TSystemEvent, Errors: TSystemError,
			StoragePrefix: "System",
			Storage: []metadata.StorageEntry{
				{Name: "Account", Fallback: accountFallback, Hashers: []hash.Hasher{hash.Blake2_128Concat}, Key: TAccountID, Value: TAccountInfo},
				{Name: "BlockHash", Fallback: make([]byte, 32), Hashers: []hash.Hasher{hash.Twox64Concat}, Key: TU32, Value: TH256},
				{Name: "Number", Fallback: u32(0), Key: metadata.NoType, Value: TU32},
				{Name: "Events", Fallback: []byte{0}, Key: metadata.NoType, Value: TEventRecordVec},
			},
			Constants: []metadata.Constant{
				{Name: "BlockHashCount", TypeID: TU32, Value: u32(BlockHashCount)},
				{Name: "SS58Prefix", TypeID: TU16, Value: binary.LittleEndian.AppendUint16(nil, SS58Prefix)},
			},
		},
		{
			Name: "Utility", Index: UtilityIndex,
			Calls: TUtilityCall, Events: TUtilityEvent, Errors: TUtilityError,
		},
		{
			Name: "Balances", Index: BalancesIndex,
			Calls: TBalancesCall, Events: TBalancesEvent, Errors: TBalancesError,
			StoragePrefix: "Balances",
			Storage: []metadata.StorageEntry{
				{Name: "TotalIssuance", Fallback: make([]byte, 16), Key: metadata.NoType, Value: TU128},
			},
			Constants: []metadata.Constant{
				{Name: "ExistentialDeposit", TypeID: TU128, Value: U128(ExistentialDeposit)},
			},
		},
		{
			Name: "Staking", Index: StakingIndex,
			Calls: TStakingCall, Events: TStakingEvent, Errors: TStakingError,
			StoragePrefix: "Staking",
			Storage: []metadata.StorageEntry{
				{Name: "ActiveEra", Optional: true, Key: metadata.NoType, Value: TActiveEraInfo},
				{Name: "Bonded", Optional: true, Hashers: []hash.Hasher{hash.Twox64Concat}, Key: TAccountID, Value: TAccountID},
				{Name: "MinNominatorBond", Fallback: make([]byte, 16), Key: metadata.NoType, Value: TU128},
			},
		},
		{
			Name: "DataAvailability", Index: DataAvailabilityIndex,
			Calls: TDACall, Events: TDAEvent, Errors: TDAError,
			StoragePrefix: "DataAvailability",
			Storage: []metadata.StorageEntry{
				{Name: "AppKeys", Optional: true, Hashers: []hash.Hasher{hash.Blake2_128Concat}, Key: TBytes, Value: TAppKeyInfo},
				{Name: "NextAppId", Fallback: []byte{0}, Key: metadata.NoType, Value: TAppID},
			},
			Constants: []metadata.Constant{
				{Name: "MaxAppDataLength", TypeID: TU32, Value: u32(MaxAppDataLength)},
				{Name: "MaxAppKeyLength", TypeID: TU32, Value: u32(MaxAppKeyLength)},
			},
		},
	}
}

// New returns a fresh copy of the test metadata.
func New() *metadata.Metadata {
	return metadata.New(registry(), pallets())
}
