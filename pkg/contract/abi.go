package contract

// Method names on the deployed marketplace contract.
const (
	MethodGetAllNFTs         = "getAllNFTs"
	MethodGetAllTransactions = "getAllTransactions"
	MethodPayToMint          = "payToMint"
	MethodPayToBuy           = "payToBuy"
	MethodChangePrice        = "changePrice"
)

// marketABI describes the marketplace contract surface this client uses:
// two enumeration reads returning the full record arrays, and three
// payable/state-mutating writes.
const marketABI = `[
  {
    "name": "getAllNFTs",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [
      {
        "name": "",
        "type": "tuple[]",
        "components": [
          { "name": "id", "type": "uint256" },
          { "name": "owner", "type": "address" },
          { "name": "cost", "type": "uint256" },
          { "name": "title", "type": "string" },
          { "name": "description", "type": "string" },
          { "name": "metadataURI", "type": "string" },
          { "name": "timestamp", "type": "uint256" }
        ]
      }
    ]
  },
  {
    "name": "getAllTransactions",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [
      {
        "name": "",
        "type": "tuple[]",
        "components": [
          { "name": "id", "type": "uint256" },
          { "name": "owner", "type": "address" },
          { "name": "cost", "type": "uint256" },
          { "name": "title", "type": "string" },
          { "name": "description", "type": "string" },
          { "name": "metadataURI", "type": "string" },
          { "name": "timestamp", "type": "uint256" }
        ]
      }
    ]
  },
  {
    "name": "payToMint",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [
      { "name": "title", "type": "string" },
      { "name": "description", "type": "string" },
      { "name": "metadataURI", "type": "string" },
      { "name": "salePrice", "type": "uint256" }
    ],
    "outputs": []
  },
  {
    "name": "payToBuy",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [
      { "name": "id", "type": "uint256" }
    ],
    "outputs": []
  },
  {
    "name": "changePrice",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "id", "type": "uint256" },
      { "name": "newPrice", "type": "uint256" }
    ],
    "outputs": []
  }
]`
