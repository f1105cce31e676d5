package events

// Event names, as declared in the core ABI.
const (
	Transfer                       = "Transfer"
	Settled                        = "Settled"
	SharesOutstandingPaid          = "SharesOutstandingPaid"
	FeeSettlementFailed            = "FeeSettlementFailed"
	FeeSettingsAddedForFund        = "FeeSettingsAddedForFund"
	RecipientSetForFund            = "RecipientSetForFund"
	HighWaterMarkUpdated           = "HighWaterMarkUpdated"
	AddressesAdded                 = "AddressesAdded"
	AddressesRemoved               = "AddressesRemoved"
	ListCreated                    = "ListCreated"
	ListsSetForFund                = "ListsSetForFund"
	PolicyEnabledForFund           = "PolicyEnabledForFund"
	PolicyDisabledForFund          = "PolicyDisabledForFund"
	PolicySettingsUpdated          = "PolicySettingsUpdated"
	SharesBought                   = "SharesBought"
	SharesRedeemed                 = "SharesRedeemed"
	PreRedeemSharesHookFailed      = "PreRedeemSharesHookFailed"
	TrackedAssetAdded              = "TrackedAssetAdded"
	TrackedAssetRemoved            = "TrackedAssetRemoved"
	ExternalPositionAdded          = "ExternalPositionAdded"
	ExternalPositionRemoved        = "ExternalPositionRemoved"
	AccessorSet                    = "AccessorSet"
	ImplementationSet              = "ImplementationSet"
	OwnershipTransferred           = "OwnershipTransferred"
	NominatedOwnerSet              = "NominatedOwnerSet"
	AssetManagerAdded              = "AssetManagerAdded"
	AssetManagerRemoved            = "AssetManagerRemoved"
	CallOnIntegrationExecuted      = "CallOnIntegrationExecuted"
	AdapterRegistered              = "AdapterRegistered"
	AdapterDeregistered            = "AdapterDeregistered"
	ExternalPositionTypeAdded      = "ExternalPositionTypeAdded"
	ExternalPositionDeployed       = "ExternalPositionDeployed"
	CallOnExternalPositionExecuted = "CallOnExternalPositionExecuted"
	NewFundCreated                 = "NewFundCreated"
	ControllerDeployed             = "ControllerDeployed"
	ReleaseStatusSet               = "ReleaseStatusSet"
	CurrentFundDeployerSet         = "CurrentFundDeployerSet"
	MigrationTimelockSet           = "MigrationTimelockSet"
	MigrationSignaled              = "MigrationSignaled"
	MigrationExecuted              = "MigrationExecuted"
	MigrationCancelled             = "MigrationCancelled"
	ReconfigurationSignaled        = "ReconfigurationSignaled"
	ReconfigurationExecuted        = "ReconfigurationExecuted"
	ReconfigurationCancelled       = "ReconfigurationCancelled"
)
