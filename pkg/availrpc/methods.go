package availrpc

// RPC methods used by the client.
const (
	ChainGetBlock            = "chain_getBlock"
	ChainGetBlockHash        = "chain_getBlockHash"
	ChainGetFinalizedHead    = "chain_getFinalizedHead"
	ChainGetHeader           = "chain_getHeader"
	ChainSubscribeNewHeads   = "chain_subscribeNewHeads"
	ChainUnsubscribeNewHeads = "chain_unsubscribeNewHeads"
	ChainSubscribeFinalized  = "chain_subscribeFinalizedHeads"
	ChainUnsubscribeFinal    = "chain_unsubscribeFinalizedHeads"

	StateGetMetadata       = "state_getMetadata"
	StateGetRuntimeVersion = "state_getRuntimeVersion"
	StateGetStorage        = "state_getStorage"
	StateGetKeysPaged      = "state_getKeysPaged"
	StateQueryStorageAt    = "state_queryStorageAt"
	StateCall              = "state_call"

	AuthorSubmitExtrinsic      = "author_submitExtrinsic"
	AuthorPendingExtrinsics    = "author_pendingExtrinsics"
	AuthorRotateKeys           = "author_rotateKeys"
	AuthorSubmitAndWatch       = "author_submitAndWatchExtrinsic"
	SystemAccountNextIndex     = "system_accountNextIndex"
	SystemChain                = "system_chain"
	SystemName                 = "system_name"
	SystemVersion              = "system_version"
	SystemHealth               = "system_health"
	SystemProperties           = "system_properties"
	PaymentQueryInfo           = "payment_queryInfo"
	KateBlockLength            = "kate_blockLength"
	KateQueryDataProof         = "kate_queryDataProof"
	RPCMethods                 = "rpc_methods"
	ChainNewHeadEvent          = "chain_newHead"
	ChainFinalizedHeadEvent    = "chain_finalizedHead"
	AuthorExtrinsicUpdateEvent = "author_extrinsicUpdate"
)
