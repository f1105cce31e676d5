package events

// coreABIJSON declares every event the engine emits.
const coreABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "fee", "type": "address"},
      {"indexed": false, "internalType": "uint8", "name": "settlementType", "type": "uint8"},
      {"indexed": false, "internalType": "address", "name": "payer", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "payee", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharesDue", "type": "uint256"}
    ],
    "name": "Settled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "fee", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "payee", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharesDue", "type": "uint256"}
    ],
    "name": "SharesOutstandingPaid",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "fee", "type": "address"},
      {"indexed": false, "internalType": "uint8", "name": "hook", "type": "uint8"},
      {"indexed": false, "internalType": "string", "name": "reason", "type": "string"}
    ],
    "name": "FeeSettlementFailed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "fee", "type": "address"},
      {"indexed": false, "internalType": "bytes", "name": "settingsData", "type": "bytes"}
    ],
    "name": "FeeSettingsAddedForFund",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "fee", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "recipient", "type": "address"}
    ],
    "name": "RecipientSetForFund",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "nextHighWaterMark", "type": "uint256"}
    ],
    "name": "HighWaterMarkUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "id", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "items", "type": "address[]"}
    ],
    "name": "AddressesAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "id", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "items", "type": "address[]"}
    ],
    "name": "AddressesRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "id", "type": "uint256"},
      {"indexed": false, "internalType": "uint8", "name": "updateType", "type": "uint8"}
    ],
    "name": "ListCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "policy", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "listIds", "type": "uint256[]"}
    ],
    "name": "ListsSetForFund",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "policy", "type": "address"},
      {"indexed": false, "internalType": "bytes", "name": "settingsData", "type": "bytes"}
    ],
    "name": "PolicyEnabledForFund",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "policy", "type": "address"}
    ],
    "name": "PolicyDisabledForFund",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "policy", "type": "address"},
      {"indexed": false, "internalType": "bytes", "name": "settingsData", "type": "bytes"}
    ],
    "name": "PolicySettingsUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "investmentAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "sharesIssued", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "sharesReceived", "type": "uint256"}
    ],
    "name": "SharesBought",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "redeemer", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharesAmount", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "receivedAssets", "type": "address[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "receivedAssetAmounts", "type": "uint256[]"}
    ],
    "name": "SharesRedeemed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "redeemer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharesAmount", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "reason", "type": "string"}
    ],
    "name": "PreRedeemSharesHookFailed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"}
    ],
    "name": "TrackedAssetAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"}
    ],
    "name": "TrackedAssetRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "externalPosition", "type": "address"}
    ],
    "name": "ExternalPositionAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "externalPosition", "type": "address"}
    ],
    "name": "ExternalPositionRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "prevAccessor", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextAccessor", "type": "address"}
    ],
    "name": "AccessorSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "implementation", "type": "address"}
    ],
    "name": "ImplementationSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "prevOwner", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "nextOwner", "type": "address"}
    ],
    "name": "OwnershipTransferred",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "nominatedOwner", "type": "address"}
    ],
    "name": "NominatedOwnerSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "manager", "type": "address"}
    ],
    "name": "AssetManagerAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "manager", "type": "address"}
    ],
    "name": "AssetManagerRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "caller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "adapter", "type": "address"},
      {"indexed": true, "internalType": "bytes4", "name": "selector", "type": "bytes4"},
      {"indexed": false, "internalType": "address[]", "name": "incomingAssets", "type": "address[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "incomingAssetAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "address[]", "name": "spendAssets", "type": "address[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "spendAssetAmounts", "type": "uint256[]"}
    ],
    "name": "CallOnIntegrationExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "adapter", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "identifier", "type": "string"}
    ],
    "name": "AdapterRegistered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "adapter", "type": "address"}
    ],
    "name": "AdapterDeregistered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "typeId", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "label", "type": "string"}
    ],
    "name": "ExternalPositionTypeAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "externalPosition", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "typeId", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "data", "type": "bytes"}
    ],
    "name": "ExternalPositionDeployed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "externalPosition", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "actionId", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "actionArgs", "type": "bytes"},
      {"indexed": false, "internalType": "address[]", "name": "assetsToTransfer", "type": "address[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "amountsToTransfer", "type": "uint256[]"},
      {"indexed": false, "internalType": "address[]", "name": "assetsToReceive", "type": "address[]"}
    ],
    "name": "CallOnExternalPositionExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "controller", "type": "address"}
    ],
    "name": "NewFundCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "controller", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "denominationAsset", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharesActionTimelock", "type": "uint256"}
    ],
    "name": "ControllerDeployed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "fundDeployer", "type": "address"},
      {"indexed": false, "internalType": "uint8", "name": "prevStatus", "type": "uint8"},
      {"indexed": false, "internalType": "uint8", "name": "nextStatus", "type": "uint8"}
    ],
    "name": "ReleaseStatusSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "prevFundDeployer", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextFundDeployer", "type": "address"}
    ],
    "name": "CurrentFundDeployerSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "prevTimelock", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "nextTimelock", "type": "uint256"}
    ],
    "name": "MigrationTimelockSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "nextFundDeployer", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextVaultAccessor", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "executableTimestamp", "type": "uint256"}
    ],
    "name": "MigrationSignaled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "nextFundDeployer", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "prevVaultAccessor", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextVaultAccessor", "type": "address"}
    ],
    "name": "MigrationExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "nextFundDeployer", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextVaultAccessor", "type": "address"}
    ],
    "name": "MigrationCancelled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextController", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "executableTimestamp", "type": "uint256"}
    ],
    "name": "ReconfigurationSignaled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "prevController", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextController", "type": "address"}
    ],
    "name": "ReconfigurationExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "vault", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "nextController", "type": "address"}
    ],
    "name": "ReconfigurationCancelled",
    "type": "event"
  }
]`
